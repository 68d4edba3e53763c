package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/framegrid/framegrid/internal/errors"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func basenames(paths []string) []string {
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}

func TestFindVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "Zulu.mp4", "alpha.mkv", "notes.txt", ".hidden.mkv")
	if err := os.Mkdir(filepath.Join(dir, "season2"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := FindVideoFiles(dir)
	if err != nil {
		t.Fatalf("FindVideoFiles: %v", err)
	}

	got := basenames(files)
	want := []string{"alpha.mkv", "Zulu.mp4"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s (case-insensitive sort)", i, got[i], want[i])
		}
	}
}

func TestFindVideoFilesNoneFound(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "readme.md")

	_, err := FindVideoFiles(dir)
	if !errors.IsNoFilesFound(err) {
		t.Errorf("error = %v, want no-files-found", err)
	}
}

func TestFindVideoFilesMissingDir(t *testing.T) {
	if _, err := FindVideoFiles("/no/such/dir"); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

type spyLogger struct {
	infos  []string
	debugs []string
}

func (l *spyLogger) Info(format string, args ...any) {
	l.infos = append(l.infos, format)
}

func (l *spyLogger) Debug(format string, args ...any) {
	l.debugs = append(l.debugs, format)
}

func TestFindVideoFilesWithLogging(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.mkv", "b.mkv", "c.mkv", "d.mkv", "e.mkv", "f.mkv", "g.mkv", "skip.srt")

	logger := &spyLogger{}
	result, err := FindVideoFilesWithLogging(dir, logger)
	if err != nil {
		t.Fatalf("FindVideoFilesWithLogging: %v", err)
	}

	if len(result.Files) != 7 {
		t.Errorf("got %d files, want 7", len(result.Files))
	}
	if result.SkippedCount != 1 {
		t.Errorf("skipped = %d, want 1", result.SkippedCount)
	}
	if len(logger.infos) != 1 {
		t.Errorf("info lines = %v, want one summary", logger.infos)
	}
	// First 5 files plus the "and N more" line.
	if len(logger.debugs) != 6 {
		t.Errorf("got %d debug lines, want 6", len(logger.debugs))
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.mkv", "a.mkv")

	single := filepath.Join(t.TempDir(), "movie.mp4")
	if err := os.WriteFile(single, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := ExpandInputs([]string{single, dir})
	if err != nil {
		t.Fatalf("ExpandInputs: %v", err)
	}

	got := basenames(files)
	want := []string{"movie.mp4", "a.mkv", "b.mkv"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExpandInputsRejectsNonVideo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ExpandInputs([]string{path}); err == nil {
		t.Error("expected an error for a non-video input")
	}
}

func TestExpandInputsMissingPath(t *testing.T) {
	if _, err := ExpandInputs([]string{"/no/such/file.mkv"}); err == nil {
		t.Error("expected an error for a missing input")
	}
}
