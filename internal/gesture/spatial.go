package gesture

// keypad is the telephone keypad letter grouping.
var keypad = map[int]string{
	2: "ABC",
	3: "DEF",
	4: "GHI",
	5: "JKL",
	6: "MNO",
	7: "PQRS",
	8: "TUV",
	9: "WXYZ",
}

// Letters returns the keypad letters for digit d, or "" for 0 and 1.
func Letters(d int) string {
	return keypad[d]
}

// ZoneIndex maps a wrist x position to a zone: the number of bounds lying
// strictly below x. A point exactly on a bound belongs to the lower zone.
func ZoneIndex(x float64, bounds []float64) int {
	zone := 0
	for _, b := range bounds {
		if x > b {
			zone++
		}
	}
	return zone
}

// CenterZone returns the zone containing the middle of the frame.
func CenterZone(bounds []float64) int {
	return ZoneIndex(0.5, bounds)
}

// Spatial is the multi-letter selection sub-machine. It is Idle until a
// stable digit 2-9 starts a hold; while holding, the wrist position picks a
// letter of the held group and a fist commits it.
//
// Armed is the "was holding" flag: it is set while the digit pose is being
// shown and cleared when tracking is lost, so only a fist that directly
// follows the digit pose commits.
type Spatial struct {
	digit   int
	letters string
	zone    int
	armed   bool
}

// Holding reports whether a digit is held.
func (s Spatial) Holding() bool {
	return s.letters != ""
}

// Armed reports whether a fist would commit now.
func (s Spatial) Armed() bool {
	return s.Holding() && s.armed
}

// Digit returns the held digit, or NoDigit when idle.
func (s Spatial) Digit() int {
	if !s.Holding() {
		return NoDigit
	}
	return s.digit
}

// Zone returns the selected letter slot, always within the held group.
func (s Spatial) Zone() int {
	return s.zone
}

// Letter returns the currently selected letter.
func (s Spatial) Letter() string {
	if !s.Holding() {
		return ""
	}
	return s.letters[s.zone : s.zone+1]
}

// Hold starts holding digit d with the selection on the center zone. It
// reports false and leaves the state unchanged for digits without letters.
// Holding the same digit again only re-arms.
func (s *Spatial) Hold(d int, bounds []float64) bool {
	letters := Letters(d)
	if letters == "" {
		return false
	}
	if s.Holding() && s.digit == d {
		s.armed = true
		return true
	}

	s.digit = d
	s.letters = letters
	s.zone = clampZone(CenterZone(bounds), len(letters))
	s.armed = true
	return true
}

// Arm marks the digit pose as shown again after a tracking gap.
func (s *Spatial) Arm() {
	if s.Holding() {
		s.armed = true
	}
}

// Disarm clears the "was holding" flag but keeps the held group.
func (s *Spatial) Disarm() {
	s.armed = false
}

// Update recomputes the zone from the wrist position and reports whether
// the selected slot changed.
func (s *Spatial) Update(x float64, bounds []float64) bool {
	if !s.Holding() {
		return false
	}
	zone := clampZone(ZoneIndex(x, bounds), len(s.letters))
	if zone == s.zone {
		return false
	}
	s.zone = zone
	return true
}

// Commit returns the selected letter and returns to Idle. It fails when not
// armed.
func (s *Spatial) Commit() (string, bool) {
	if !s.Armed() {
		return "", false
	}
	letter := s.Letter()
	s.Clear()
	return letter, true
}

// Clear returns to Idle.
func (s *Spatial) Clear() {
	*s = Spatial{}
}

func clampZone(zone, n int) int {
	if zone < 0 {
		return 0
	}
	if zone >= n {
		return n - 1
	}
	return zone
}
