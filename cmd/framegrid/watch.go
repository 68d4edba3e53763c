package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/history"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/util"
	"github.com/framegrid/framegrid/internal/watcher"
)

var watchArgs = struct {
	configArgs
	output      string
	recursive   bool
	settle      time.Duration
	historyPath string
	verbose     bool
	ndjson      bool
}{}

var watchCmd = &cobra.Command{
	Use:   "watch [flags] DIR...",
	Short: "Watch directories and generate mosaics for arriving videos",
	Long: `Watch monitors one or more directories and generates a mosaic for every
new video file once it has finished copying in. A file counts as settled
when it has received no writes and its size has been stable for the
settle duration.

Runs until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	fs := watchCmd.Flags()
	fs.StringVarP(&watchArgs.output, "output", "o", ".", "directory generated mosaics are written to")
	fs.BoolVarP(&watchArgs.recursive, "recursive", "r", false, "watch subdirectories too")
	fs.DurationVar(&watchArgs.settle, "settle", 2*time.Second,
		"how long a file must stay unchanged before it is picked up")
	fs.StringVar(&watchArgs.historyPath, "history", "", "record generations to a SQLite database at this path")
	fs.BoolVarP(&watchArgs.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&watchArgs.ndjson, "ndjson", false, "emit progress as NDJSON events on stdout")
	addConfigFlags(watchCmd, &watchArgs.configArgs)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, &watchArgs.configArgs, watchArgs.output, "")
	if err != nil {
		return err
	}
	if err := util.EnsureDirectory(cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	level := logging.LevelInfo
	if watchArgs.verbose {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	if err := pipeline.CheckTools(); err != nil {
		return err
	}

	coord := batch.NewCoordinator(cfg, pipeline.DefaultBackends(), nil, newCLIReporter(watchArgs.ndjson))

	if watchArgs.historyPath != "" {
		store, err := history.Open(watchArgs.historyPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() { _ = store.Close() }()
		coord.SetOnFinish(historyHook(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(func(path string) {
		t := coord.Submit(nil, pipeline.Request{InputPath: path})
		coord.StartAsync(ctx, t)
		logging.Info("queued mosaic generation", "input", path, "task", t.ID())
	}, watcher.Options{
		SettleDelay: watchArgs.settle,
		Recursive:   watchArgs.recursive,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for _, dir := range args {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	logging.Info("watching for new videos", "dirs", len(args), "settle", watchArgs.settle.String())

	if err := w.Run(ctx); err != nil {
		return err
	}
	coord.CancelAll()
	return nil
}
