package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
)

type replayOptions struct {
	paced    bool
	previews bool
	journal  bool
	preset   string
}

var replayOpts replayOptions

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Run a recorded frame file through the gesture engine and print the events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), args[0], replayOpts)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayOpts.paced, "paced", false, "Deliver frames at their recorded rate")
	replayCmd.Flags().BoolVar(&replayOpts.previews, "previews", false, "Also print spatial letter previews")
	replayCmd.Flags().BoolVar(&replayOpts.journal, "journal", false, "Append the events to the event journal")
	replayCmd.Flags().StringVar(&replayOpts.preset, "preset", "", "Apply a tuning preset for this replay")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(ctx context.Context, path string, opts replayOptions) error {
	total, err := source.CountFrames(path)
	if err != nil {
		return err
	}

	settings := cfg
	if opts.preset != "" {
		if err := settings.ApplyPreset(opts.preset); err != nil {
			return err
		}
	}

	var st *store.Store
	if opts.journal {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Replaying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	collector := metrics.New()
	var printed []gesture.Event

	a, err := app.New(app.Config{
		Settings: settings,
		Source:   app.ReplaySource(path, opts.paced),
		Policy:   source.Policy{MaxTries: 1},
		Store:    st,
		Metrics:  collector,
		OnEvent: func(ev gesture.Event) {
			if ev.Committed() || opts.previews {
				printed = append(printed, ev)
			}
		},
	})
	if err != nil {
		return err
	}

	if err := a.Start(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r := collector.Report()
				bar.Set64(r.Frames + r.Rejected)
			}
		}
	}()

	runErr := a.Wait()
	close(done)
	bar.Finish()
	if runErr != nil {
		return runErr
	}

	for _, ev := range printed {
		printEvent(ev)
	}
	printSummary(collector.Report())
	return nil
}

func printEvent(ev gesture.Event) {
	line := fmt.Sprintf("%s  %-7s %-12s conf=%.2f", ev.Timestamp.Format("15:04:05.000"), ev.Kind, quoteEmpty(ev.Value), ev.Confidence)
	if ev.Zone >= 0 {
		line += fmt.Sprintf(" zone=%d", ev.Zone)
	}
	fmt.Println(line)
}

func quoteEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

func printSummary(r metrics.Report) {
	fmt.Printf("\nframes=%d hands=%d rejected=%d dropped=%d\n", r.Frames, r.HandFrames, r.Rejected, r.Dropped)
	fmt.Printf("latency avg=%.3fms p95=%.3fms confidence avg=%.2f\n", r.AvgLatencyMS, r.P95LatencyMS, r.AvgConfidence)

	kinds := make([]string, 0, len(r.Events))
	for k := range r.Events {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-8s %d\n", k, r.Events[k])
	}
}
