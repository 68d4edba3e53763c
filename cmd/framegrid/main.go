// Package main provides the CLI entry point for framegrid.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/history"
	"github.com/framegrid/framegrid/internal/logging"
)

const (
	appName    = "framegrid"
	appVersion = "0.3.0"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Video mosaic contact sheet generator",
	Long: `Framegrid generates mosaic contact sheets from video files.

It samples frames across a video's timeline, arranges them with one of
several layout strategies and composes them onto a single canvas with
timestamp labels, styled borders and an optional metadata header.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("%s version %s\n", appName, appVersion)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd, serveCmd, watchCmd, presetsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// historyHook returns a coordinator finish hook that records every
// terminal task in the store.
func historyHook(store *history.Store) func(*batch.Task) {
	return func(t *batch.Task) {
		result, genErr := t.Outcome()
		rec := history.RecordFor(t.InputPath(), t.Config().LayoutMode.String(), result, genErr)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := store.Add(ctx, rec); err != nil {
			logging.Warn("failed to record generation history", "path", t.InputPath(), "error", err)
		}
	}
}
