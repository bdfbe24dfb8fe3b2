package store

import (
	"database/sql"
	"time"
)

// Event is a journaled gesture event.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Zone       int       `json:"zone"`
	OccurredAt time.Time `json:"timestamp"`
}

// EventRepository is the append-only gesture event journal.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append adds an event to the journal.
func (r *EventRepository) Append(e Event) error {
	_, err := r.db.Exec(
		`INSERT INTO events (id, kind, value, confidence, zone, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Value, e.Confidence, e.Zone, e.OccurredAt.UTC(),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		return []Event{}, nil
	}

	rows, err := r.db.Query(
		`SELECT id, kind, value, confidence, zone, occurred_at FROM events ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Value, &e.Confidence, &e.Zone, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Count returns the number of journaled events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Prune deletes all but the newest keep events and returns how many were removed.
func (r *EventRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM events WHERE seq NOT IN (SELECT seq FROM events ORDER BY seq DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
