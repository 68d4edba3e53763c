package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetFileStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/videos/movie.mkv", "movie"},
		{"clip.mp4", "clip"},
		{"/a/b/noext", "noext"},
		{"archive.tar.gz", "archive.tar"},
	}

	for _, tt := range tests {
		if got := GetFileStem(tt.path); got != tt.want {
			t.Errorf("GetFileStem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolveOutputPath(t *testing.T) {
	got := ResolveOutputPath("/videos/movie.mkv", "/out", "", ".webp")
	want := filepath.Join("/out", "movie.webp")
	if got != want {
		t.Errorf("ResolveOutputPath() = %q, want %q", got, want)
	}

	got = ResolveOutputPath("/videos/movie.mkv", "/out", "custom.png", ".webp")
	want = filepath.Join("/out", "custom.png")
	if got != want {
		t.Errorf("ResolveOutputPath() with override = %q, want %q", got, want)
	}
}

func TestResolveOutputArg(t *testing.T) {
	tmpDir := t.TempDir()
	videoPath := filepath.Join(tmpDir, "movie.mkv")
	if err := os.WriteFile(videoPath, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}

	// File input + image extension: treated as filename
	info, err := ResolveOutputArg(videoPath, filepath.Join(tmpDir, "sheet.webp"))
	if err != nil {
		t.Fatalf("ResolveOutputArg failed: %v", err)
	}
	if info.FilenameOverride != "sheet.webp" {
		t.Errorf("FilenameOverride = %q, want sheet.webp", info.FilenameOverride)
	}
	if info.OutputDir != tmpDir {
		t.Errorf("OutputDir = %q, want %q", info.OutputDir, tmpDir)
	}

	// File input + unsupported extension: rejected
	if _, err := ResolveOutputArg(videoPath, "out.mkv"); err == nil {
		t.Error("expected error for non-image output extension")
	}

	// Directory output
	info, err = ResolveOutputArg(videoPath, filepath.Join(tmpDir, "mosaics"))
	if err != nil {
		t.Fatalf("ResolveOutputArg failed: %v", err)
	}
	if info.FilenameOverride != "" {
		t.Errorf("FilenameOverride = %q, want empty for directory output", info.FilenameOverride)
	}

	// Directory input is always a directory output, even with an extension
	info, err = ResolveOutputArg(tmpDir, "weird.webp")
	if err != nil {
		t.Fatalf("ResolveOutputArg failed: %v", err)
	}
	if info.FilenameOverride != "" {
		t.Error("directory input should never yield a filename override")
	}
}

func TestIsVideoFile(t *testing.T) {
	tmpDir := t.TempDir()

	videoPath := filepath.Join(tmpDir, "clip.mp4")
	if err := os.WriteFile(videoPath, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}
	if !IsVideoFile(videoPath) {
		t.Error("expected .mp4 file to be recognized as video")
	}

	textPath := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsVideoFile(textPath) {
		t.Error("expected .txt file to be rejected")
	}

	if IsVideoFile(tmpDir) {
		t.Error("directories are not video files")
	}

	if IsVideoFile(filepath.Join(tmpDir, "missing.mkv")) {
		t.Error("missing files are not video files")
	}
}
