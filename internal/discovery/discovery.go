// Package discovery finds video files for mosaic generation.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/util"
)

// DiscoveryLogger defines the interface for discovery logging.
type DiscoveryLogger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
}

// DiscoveryResult contains the results of file discovery with metadata.
type DiscoveryResult struct {
	Files        []string
	SkippedCount int
}

// scanDirectory collects video files directly inside inputDir. Hidden
// files and subdirectories are skipped; non-video files are counted.
func scanDirectory(inputDir string) ([]string, int, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, 0, fmt.Errorf("directory does not exist: %s", inputDir)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("%s is not a directory", inputDir)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot read directory %s: %w", inputDir, err)
	}

	var files []string
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(inputDir, name)
		if util.IsVideoFile(fullPath) {
			files = append(files, fullPath)
		} else {
			skipped++
		}
	}

	sortByBasename(files)
	return files, skipped, nil
}

func sortByBasename(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})
}

// FindVideoFiles finds video files in the given directory.
// Returns files sorted alphabetically by filename.
func FindVideoFiles(inputDir string) ([]string, error) {
	files, _, err := scanDirectory(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.NewNoFilesFoundError(inputDir)
	}
	return files, nil
}

// FindVideoFilesWithLogging finds video files and logs discovery progress.
// Logs the first 5 files found plus a count summary.
func FindVideoFilesWithLogging(inputDir string, logger DiscoveryLogger) (*DiscoveryResult, error) {
	files, skipped, err := scanDirectory(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.NewNoFilesFoundError(inputDir)
	}

	if logger != nil {
		logDiscoveredFiles(files, logger)
	}

	return &DiscoveryResult{Files: files, SkippedCount: skipped}, nil
}

// ExpandInputs resolves a mix of file and directory arguments into a flat
// list of video files. Directories contribute their videos sorted;
// explicit file arguments are taken as given, in argument order, but must
// have a recognized video extension.
func ExpandInputs(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("input does not exist: %s", path)
		}

		if info.IsDir() {
			found, err := FindVideoFiles(path)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}

		if !util.IsVideoFile(path) {
			return nil, fmt.Errorf("not a recognized video file: %s", path)
		}
		files = append(files, path)
	}

	if len(files) == 0 {
		return nil, errors.NewNoFilesFoundError(strings.Join(paths, ", "))
	}
	return files, nil
}

// logDiscoveredFiles logs the first 5 discovered files plus a count.
func logDiscoveredFiles(files []string, logger DiscoveryLogger) {
	logger.Info("Found %d video file(s)", len(files))

	maxToLog := min(5, len(files))
	for i := 0; i < maxToLog; i++ {
		logger.Debug("  %s", filepath.Base(files[i]))
	}

	if len(files) > 5 {
		logger.Debug("  ... and %d more", len(files)-5)
	}
}
