package validation

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/util"
)

// Options contains expectations for output validation. Zero values skip
// the corresponding check.
type Options struct {
	ExpectedFormat config.OutputFormat
	ExpectedWidth  int
	ExpectedHeight int
}

// ValidateOutputImage checks that a saved mosaic is a readable image of
// the expected format and geometry. Failures are reported through the
// result, never as errors; only the image header is decoded.
func ValidateOutputImage(path string, opts Options) *Result {
	result := &Result{
		Path:           path,
		ExpectedWidth:  opts.ExpectedWidth,
		ExpectedHeight: opts.ExpectedHeight,
	}

	fi, err := os.Stat(path)
	if err != nil {
		result.FileMessage = fmt.Sprintf("Output file missing: %v", err)
		return result
	}
	result.FileExists = true
	result.SizeBytes = uint64(fi.Size())
	if fi.Size() == 0 {
		result.FileMessage = "Output file is empty"
		return result
	}
	result.IsNonEmpty = true
	result.FileMessage = fmt.Sprintf("Output written (%s)", util.FormatBytes(result.SizeBytes))

	f, err := os.Open(path)
	if err != nil {
		result.DecodeMessage = fmt.Sprintf("Cannot open output: %v", err)
		return result
	}
	defer f.Close()

	cfg, formatName, err := image.DecodeConfig(f)
	if err != nil {
		result.DecodeMessage = fmt.Sprintf("Not a decodable image: %v", err)
		return result
	}
	result.IsDecodable = true
	result.FormatName = formatName
	result.ActualWidth = cfg.Width
	result.ActualHeight = cfg.Height
	result.DecodeMessage = fmt.Sprintf("Decodable %s header", formatName)

	result.IsFormatCorrect, result.FormatMessage = validateFormat(formatName, opts.ExpectedFormat)
	result.IsDimensionsCorrect, result.DimensionsMessage = validateDimensions(
		cfg.Width, cfg.Height, opts.ExpectedWidth, opts.ExpectedHeight)
	return result
}

// validateFormat checks the sniffed format name against the requested one.
func validateFormat(actual string, expected config.OutputFormat) (bool, string) {
	if expected == "" {
		return true, "Format validation skipped"
	}
	if actual == expected.String() {
		return true, "Format matches: " + actual
	}
	return false, fmt.Sprintf("Format mismatch: got %s, expected %s", actual, expected)
}

// validateDimensions checks that dimensions match expected values.
func validateDimensions(actualW, actualH, expectedW, expectedH int) (bool, string) {
	if expectedW <= 0 || expectedH <= 0 {
		return true, "Dimension validation skipped"
	}
	if actualW == expectedW && actualH == expectedH {
		return true, fmt.Sprintf("Dimensions match: %dx%d", actualW, actualH)
	}
	return false, fmt.Sprintf("Dimension mismatch: got %dx%d, expected %dx%d",
		actualW, actualH, expectedW, expectedH)
}
