package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/tray"
)

type runOptions struct {
	record string
	addr   string
	web    string
	noTray bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize gestures from the camera and serve the HMI API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(cmd.Context(), runOpts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.record, "record", "", "Write every camera frame to `FILE` for later replay")
	runCmd.Flags().StringVar(&runOpts.addr, "addr", "", "HTTP listen address (default from MUDRA_HTTP_ADDR)")
	runCmd.Flags().StringVar(&runOpts.web, "web", "", "Serve the front end from `DIR` (default: search common locations)")
	runCmd.Flags().BoolVar(&runOpts.noTray, "no-tray", false, "Run without the system tray")
	rootCmd.AddCommand(runCmd)
}

func runLive(parent context.Context, opts runOptions) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if opts.addr != "" {
		cfg.HTTPAddr = opts.addr
	}
	if opts.web == "" {
		opts.web = findWebDir()
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	var record io.Writer
	if opts.record != "" {
		f, err := os.Create(opts.record)
		if err != nil {
			return fmt.Errorf("create recording: %w", err)
		}
		defer f.Close()
		record = f
		log.Printf("Recording frames to %s", opts.record)
	}

	hub := server.NewHub()
	collector := metrics.New()

	appCfg := app.Config{
		Settings: cfg,
		Source:   app.LiveSource,
		Policy:   sourcePolicy(),
		Store:    st,
		Plugins:  plugins,
		Metrics:  collector,
		Hub:      hub,
		Record:   record,
	}

	var tr *tray.Tray
	if !opts.noTray {
		tr = tray.New(config.Presets())
		appCfg.Display = tr
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		StaticDir: opts.web,
		Store:     st,
		Hub:       hub,
		Metrics:   collector,
		Plugins:   plugins,
		Settings:  a,
		Running:   a.IsRunning,
	})
	if opts.web != "" {
		log.Printf("Serving static files from %s", opts.web)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.HTTPAddr)
		serveErr <- srv.ListenAndServe(ctx, cfg.HTTPAddr)
		cancel()
	}()

	if err := a.Start(ctx); err != nil {
		cancel()
		<-serveErr
		return err
	}
	defer a.Stop()

	if tr != nil {
		tr.OnToggle(func(enabled bool) {
			if err := a.SetEnabled(enabled); err != nil {
				log.Printf("Failed to toggle recognition: %v", err)
			}
		})
		tr.OnPreset(func(name string) {
			if err := a.ApplyPreset(name); err != nil {
				log.Printf("Failed to apply preset %s: %v", name, err)
			}
		})
		tr.OnSettings(func() {
			log.Printf("Settings are served at http://%s/", cfg.HTTPAddr)
		})
		tr.OnQuit(cancel)

		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray owns the main goroutine until Quit.
		tr.Run()
		cancel()
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	if err := <-serveErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
