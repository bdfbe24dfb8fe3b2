package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/source"
)

var demoCmd = &cobra.Command{
	Use:   "demo FILE",
	Short: "Write a scripted recording (digit, letter, select) to replay without a camera",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create recording: %w", err)
		}
		defer f.Close()

		frames := detector.DemoSequence(time.Now())
		if err := source.WriteRecording(f, frames); err != nil {
			return err
		}
		fmt.Printf("Wrote %d frames to %s\n", len(frames), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
