package validation

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"

	"github.com/framegrid/framegrid/internal/config"
)

// writePNG writes a solid PNG of the given size and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	return path
}

func TestValidateOutputImageValid(t *testing.T) {
	path := writePNG(t, t.TempDir(), "mosaic.png", 640, 480)

	result := ValidateOutputImage(path, Options{
		ExpectedFormat: config.FormatPNG,
		ExpectedWidth:  640,
		ExpectedHeight: 480,
	})

	if !result.IsValid() {
		t.Fatalf("IsValid() = false, failures: %v", result.GetFailures())
	}
	if result.FormatName != "png" {
		t.Errorf("FormatName = %q, want png", result.FormatName)
	}
	if result.SizeBytes == 0 {
		t.Error("SizeBytes = 0, want the written size")
	}
	if result.ActualWidth != 640 || result.ActualHeight != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", result.ActualWidth, result.ActualHeight)
	}
	for _, step := range result.GetValidationSteps() {
		if !step.Passed {
			t.Errorf("step %q failed: %s", step.Name, step.Details)
		}
		if step.Details == "" {
			t.Errorf("step %q has no details", step.Name)
		}
	}
}

func TestValidateOutputImageWebP(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0x40, G: 0x80, B: 0xc0, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 85}); err != nil {
		t.Fatalf("encoding webp: %v", err)
	}
	path := filepath.Join(t.TempDir(), "mosaic.webp")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing webp: %v", err)
	}

	result := ValidateOutputImage(path, Options{
		ExpectedFormat: config.FormatWebP,
		ExpectedWidth:  120,
		ExpectedHeight: 90,
	})
	if !result.IsValid() {
		t.Fatalf("IsValid() = false, failures: %v", result.GetFailures())
	}
	if result.FormatName != "webp" {
		t.Errorf("FormatName = %q, want webp", result.FormatName)
	}
}

func TestValidateMissingFile(t *testing.T) {
	result := ValidateOutputImage(filepath.Join(t.TempDir(), "nope.png"), Options{})

	if result.IsValid() {
		t.Fatal("IsValid() = true for a missing file")
	}
	if result.FileExists {
		t.Error("FileExists = true for a missing file")
	}
	failures := result.GetFailures()
	if len(failures) == 0 {
		t.Fatal("GetFailures() is empty")
	}
	if !strings.HasPrefix(failures[0], "Output file:") {
		t.Errorf("failures[0] = %q, want the file step first", failures[0])
	}
}

func TestValidateEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	result := ValidateOutputImage(path, Options{})
	if !result.FileExists {
		t.Error("FileExists = false, file is present")
	}
	if result.IsNonEmpty {
		t.Error("IsNonEmpty = true for a zero-byte file")
	}
	if result.IsValid() {
		t.Error("IsValid() = true for a zero-byte file")
	}
}

func TestValidateGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("this is not an image"), 0o644); err != nil {
		t.Fatalf("writing garbage file: %v", err)
	}

	result := ValidateOutputImage(path, Options{ExpectedFormat: config.FormatPNG})
	if result.IsDecodable {
		t.Error("IsDecodable = true for garbage bytes")
	}
	if result.IsValid() {
		t.Error("IsValid() = true for garbage bytes")
	}
}

func TestValidateFormatMismatch(t *testing.T) {
	path := writePNG(t, t.TempDir(), "mosaic.webp", 64, 64)

	result := ValidateOutputImage(path, Options{ExpectedFormat: config.FormatWebP})
	if result.IsFormatCorrect {
		t.Error("IsFormatCorrect = true, file is PNG")
	}
	if !strings.Contains(result.FormatMessage, "png") || !strings.Contains(result.FormatMessage, "webp") {
		t.Errorf("FormatMessage = %q, want both formats named", result.FormatMessage)
	}
}

func TestValidateDimensionMismatch(t *testing.T) {
	path := writePNG(t, t.TempDir(), "mosaic.png", 100, 50)

	result := ValidateOutputImage(path, Options{
		ExpectedFormat: config.FormatPNG,
		ExpectedWidth:  200,
		ExpectedHeight: 100,
	})
	if result.IsDimensionsCorrect {
		t.Error("IsDimensionsCorrect = true for a half-size output")
	}
	if result.IsValid() {
		t.Error("IsValid() = true with mismatched dimensions")
	}
	if !strings.Contains(result.DimensionsMessage, "100x50") {
		t.Errorf("DimensionsMessage = %q, want actual size in message", result.DimensionsMessage)
	}
}

func TestValidateSkipsWithoutExpectations(t *testing.T) {
	path := writePNG(t, t.TempDir(), "mosaic.png", 32, 32)

	result := ValidateOutputImage(path, Options{})
	if !result.IsValid() {
		t.Fatalf("IsValid() = false with no expectations, failures: %v", result.GetFailures())
	}
	if !strings.Contains(result.FormatMessage, "skipped") {
		t.Errorf("FormatMessage = %q, want skipped", result.FormatMessage)
	}
	if !strings.Contains(result.DimensionsMessage, "skipped") {
		t.Errorf("DimensionsMessage = %q, want skipped", result.DimensionsMessage)
	}
}
