package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/discovery"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/history"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/util"
)

var genArgs = struct {
	configArgs
	output      string
	logDir      string
	historyPath string
	verbose     bool
	noLog       bool
	ndjson      bool
}{}

var generateCmd = &cobra.Command{
	Use:   "generate [flags] INPUT...",
	Short: "Generate mosaic contact sheets",
	Long: `Generate renders a mosaic contact sheet for each input video.

Inputs may be video files, directories, or a mix. Directories are scanned
non-recursively for video files. One mosaic image is written per video,
named after the video with the format's extension.

Examples:
  framegrid generate movie.mkv
  framegrid generate -o sheets/ --density high /media/movies
  framegrid generate -o cover.png --layout classic episode.mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	fs := generateCmd.Flags()
	fs.StringVarP(&genArgs.output, "output", "o", "",
		"output directory, or an image filename for a single input")
	fs.StringVarP(&genArgs.logDir, "log-dir", "l", "", "log directory (default OUTPUT/logs)")
	fs.StringVar(&genArgs.historyPath, "history", "", "record generations to a SQLite database at this path")
	fs.BoolVarP(&genArgs.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&genArgs.noLog, "no-log", false, "disable log file creation")
	fs.BoolVar(&genArgs.ndjson, "ndjson", false, "emit progress as NDJSON events on stdout")
	addConfigFlags(generateCmd, &genArgs.configArgs)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	singleFile := len(args) == 1
	if singleFile {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			singleFile = false
		}
	}

	outputDir, targetName, err := resolveOutput(genArgs.output, singleFile)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, &genArgs.configArgs, outputDir, genArgs.logDir)
	if err != nil {
		return err
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.OutputDir, "logs")
	}
	if err := util.EnsureDirectory(cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	runLog, err := logging.Setup(cfg.LogDir, genArgs.verbose, genArgs.noLog)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = runLog.Close() }()
	initSlog(runLog, genArgs.verbose)

	files, err := expandInputs(args, runLog)
	if err != nil {
		return err
	}
	if targetName != "" && len(files) > 1 {
		return fmt.Errorf("output names a file but inputs expand to %d videos; use a directory", len(files))
	}

	if err := pipeline.CheckTools(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The run log keeps the full event stream as NDJSON next to the
	// console output, so finished runs stay inspectable.
	rep := newCLIReporter(genArgs.ndjson)
	if runLog != nil {
		rep = reporter.NewCompositeReporter(rep, reporter.NewJSONReporterWithWriter(runLog.Writer()))
	}

	coord := batch.NewCoordinator(cfg, pipeline.DefaultBackends(), nil, rep)

	if genArgs.historyPath != "" {
		store, err := history.Open(genArgs.historyPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() { _ = store.Close() }()
		coord.SetOnFinish(historyHook(store))
	}

	reqs := make([]pipeline.Request, len(files))
	for i, f := range files {
		reqs[i] = pipeline.Request{InputPath: f}
	}
	if targetName != "" {
		reqs[0].OutputPath = filepath.Join(cfg.OutputDir, targetName)
	}

	return summarizeOutcomes(coord.Run(ctx, reqs))
}

// resolveOutput splits the output flag into a directory and an optional
// target filename. A path ending in a known image extension names the output
// file itself; anything else is treated as a directory.
func resolveOutput(outputPath string, singleFile bool) (outputDir, targetName string, err error) {
	if outputPath == "" {
		return "", "", nil
	}
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return "", "", fmt.Errorf("invalid output path: %w", err)
	}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".webp", ".png", ".jpg", ".jpeg":
		if !singleFile {
			return "", "", fmt.Errorf("output %s names a file; batch runs need a directory", outputPath)
		}
		return filepath.Dir(abs), filepath.Base(abs), nil
	}
	return abs, "", nil
}

// expandInputs resolves file and directory arguments into a flat list of
// video files, logging what each directory contributed.
func expandInputs(args []string, runLog *logging.RunLog) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input does not exist: %s", arg)
		}
		if info.IsDir() {
			res, err := discovery.FindVideoFilesWithLogging(arg, runLog)
			if err != nil {
				return nil, err
			}
			files = append(files, res.Files...)
			continue
		}
		if !util.IsVideoFile(arg) {
			return nil, fmt.Errorf("not a recognized video file: %s", arg)
		}
		files = append(files, arg)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no video files found")
	}
	runLog.Info("Processing %d video file(s)", len(files))
	return files, nil
}

// summarizeOutcomes folds the per-file outcomes into the process exit state.
func summarizeOutcomes(outcomes []batch.Outcome) error {
	var failed int
	var cancelled bool
	for _, o := range outcomes {
		switch {
		case o.Err == nil:
		case errors.IsCancelled(o.Err):
			cancelled = true
		default:
			failed++
		}
	}
	if cancelled {
		return fmt.Errorf("generation cancelled")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d generations failed", failed, len(outcomes))
	}
	return nil
}
