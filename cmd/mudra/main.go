// Command mudra turns camera hand poses into digit, letter and control
// input for an infotainment front end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
)

// Version is the application version.
const Version = "0.1.0"

// cfg is loaded from the environment before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "mudra",
	Short:         "Hand gesture input for in-vehicle infotainment",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// sourcePolicy is the default retry policy bounded by the configured tries.
func sourcePolicy() source.Policy {
	p := source.DefaultPolicy()
	p.MaxTries = cfg.SourceRetries
	return p
}

// findWebDir searches for the front end build in common locations: "web",
// "../web", "../../web" and the web directory under the data dir. Returns
// the first existing directory or an empty string.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWeb := filepath.Join(cfg.DataDir, "web")
	if info, err := os.Stat(dataWeb); err == nil && info.IsDir() {
		return dataWeb
	}
	return ""
}
