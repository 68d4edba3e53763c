package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/framegrid/framegrid/internal/api"
	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/history"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/util"
)

var serveArgs = struct {
	configArgs
	port        int
	output      string
	historyPath string
	noHistory   bool
	verbose     bool
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for mosaic generation",
	Long: `Serve starts a local HTTP server that accepts generation requests,
reports task progress and serves the generation history.

The server binds to 127.0.0.1 and is meant for local automation, not
for exposure to a network. Config flags set the defaults for submitted
tasks; each request may override them.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	fs := serveCmd.Flags()
	fs.IntVarP(&serveArgs.port, "port", "p", 8687, "port to listen on")
	fs.StringVarP(&serveArgs.output, "output", "o", ".", "directory generated mosaics are written to")
	fs.StringVar(&serveArgs.historyPath, "history", "", "history database path (default OUTPUT/framegrid.db)")
	fs.BoolVar(&serveArgs.noHistory, "no-history", false, "disable the generation history")
	fs.BoolVarP(&serveArgs.verbose, "verbose", "v", false, "verbose output")
	addConfigFlags(serveCmd, &serveArgs.configArgs)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, &serveArgs.configArgs, serveArgs.output, "")
	if err != nil {
		return err
	}
	if err := util.EnsureDirectory(cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	level := logging.LevelInfo
	if serveArgs.verbose {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	if err := pipeline.CheckTools(); err != nil {
		return err
	}

	coord := batch.NewCoordinator(cfg, pipeline.DefaultBackends(), nil, reporter.NullReporter{})

	var store *history.Store
	if !serveArgs.noHistory {
		dbPath := serveArgs.historyPath
		if dbPath == "" {
			dbPath = filepath.Join(cfg.OutputDir, "framegrid.db")
		}
		store, err = history.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() { _ = store.Close() }()
		coord.SetOnFinish(historyHook(store))
	}

	srv := api.NewServer(api.ServerConfig{
		Port:        serveArgs.port,
		Coordinator: coord,
		History:     store,
		Defaults:    cfg,
		Logger:      logging.Global(),
		StartTime:   time.Now(),
		Version:     appVersion,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logging.Info("framegrid API listening", "addr", srv.Addr(), "version", appVersion)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	coord.CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
