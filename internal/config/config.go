// Package config provides configuration types and defaults for framegrid.
package config

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/framegrid/framegrid/internal/density"
)

// Default constants
const (
	// DefaultCanvasWidth is the mosaic canvas width in pixels.
	DefaultCanvasWidth int = 2048

	// MinCanvasWidth is the smallest accepted canvas width.
	MinCanvasWidth int = 256

	// MaxCanvasWidth is the largest accepted canvas width.
	MaxCanvasWidth int = 16384

	// DefaultSpacing is the gap between thumbnails in pixels.
	DefaultSpacing int = 4

	// DefaultAspectRatio is the target mosaic aspect ratio (16:9).
	DefaultAspectRatio float64 = 16.0 / 9.0

	// DefaultQuality is the output compression quality (0.0-1.0].
	DefaultQuality float64 = 0.85

	// DefaultExtractionConcurrency is the per-video frame extraction pool size.
	DefaultExtractionConcurrency int = 4

	// DefaultShadowOffset is the drop shadow offset in pixels.
	DefaultShadowOffset int = 4

	// DefaultDisplayWidth is the display hint width used by the Auto layout
	// when no hint is configured.
	DefaultDisplayWidth int = 1920

	// DefaultDisplayHeight is the display hint height used by the Auto layout
	// when no hint is configured.
	DefaultDisplayHeight int = 1080
)

// LayoutMode selects the geometric arrangement strategy.
type LayoutMode string

const (
	LayoutCustom          LayoutMode = "custom"
	LayoutClassic         LayoutMode = "classic"
	LayoutAuto            LayoutMode = "auto"
	LayoutDynamic         LayoutMode = "dynamic"
	LayoutCompactVertical LayoutMode = "compact-vertical"
)

// ParseLayoutMode parses a string into a LayoutMode.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "custom":
		return LayoutCustom, nil
	case "classic":
		return LayoutClassic, nil
	case "auto":
		return LayoutAuto, nil
	case "dynamic":
		return LayoutDynamic, nil
	case "compact-vertical", "compactvertical", "compact":
		return LayoutCompactVertical, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: custom, classic, auto, dynamic, compact-vertical", ErrInvalidLayoutMode, s)
	}
}

// String returns the string representation of the layout mode.
func (m LayoutMode) String() string {
	return string(m)
}

// OutputFormat selects the output image encoding.
type OutputFormat string

const (
	FormatWebP OutputFormat = "webp"
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpeg"
)

// ParseOutputFormat parses a string into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "webp":
		return FormatWebP, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: webp, png, jpeg", ErrInvalidFormat, s)
	}
}

// String returns the string representation of the format.
func (f OutputFormat) String() string {
	return string(f)
}

// Ext returns the file extension for the format, including the leading dot.
func (f OutputFormat) Ext() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	default:
		return ".webp"
	}
}

// BackgroundStyle selects how the canvas behind the thumbnails is painted.
type BackgroundStyle string

const (
	// BackgroundGradient paints a blurred gradient from the frames' dominant colors.
	BackgroundGradient BackgroundStyle = "gradient"
	// BackgroundFlat paints a single configured color.
	BackgroundFlat BackgroundStyle = "flat"
)

// VisualSettings holds border, shadow and background styling.
type VisualSettings struct {
	BorderWidth     int
	BorderColor     color.NRGBA
	ShadowEnabled   bool
	ShadowOffset    int
	Background      BackgroundStyle
	BackgroundColor color.NRGBA
}

// MosaicConfig holds all configuration for mosaic generation.
// It is immutable during a generation call; callers copy it between calls.
type MosaicConfig struct {
	// Output paths
	OutputDir string
	LogDir    string

	// Geometry
	CanvasWidth int
	AspectRatio float64
	LayoutMode  LayoutMode
	Spacing     int

	// Display hint for the Auto layout (zero means use defaults).
	DisplayWidth  int
	DisplayHeight int

	// Sampling
	Density            density.Density
	AccurateTimestamps bool

	// CropBars enables a detection pass that trims letterbox and
	// pillarbox bars from extracted frames. The pass costs roughly a
	// dozen extra ffmpeg probes per file, so it is off by default.
	CropBars bool

	// Composition
	IncludeMetadata bool
	Visual          VisualSettings

	// Output
	Format  OutputFormat
	Quality float64

	// MaxOutputBytes caps the exported image size in bytes. Zero means no
	// cap. Lossy formats are re-encoded at reduced quality until they fit;
	// PNG cannot be refitted and only produces a warning.
	MaxOutputBytes int64

	// Concurrency
	ExtractionConcurrency int
	MaxConcurrentTasks    int // 0 means derive from host resources
}

// NewConfig creates a new MosaicConfig with default values.
func NewConfig(outputDir, logDir string) *MosaicConfig {
	return &MosaicConfig{
		OutputDir:   outputDir,
		LogDir:      logDir,
		CanvasWidth: DefaultCanvasWidth,
		AspectRatio: DefaultAspectRatio,
		LayoutMode:  LayoutCustom,
		Spacing:     DefaultSpacing,
		Density:     density.Standard,
		Visual: VisualSettings{
			ShadowOffset:    DefaultShadowOffset,
			Background:      BackgroundGradient,
			BackgroundColor: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff},
			BorderColor:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		},
		Format:                FormatWebP,
		Quality:               DefaultQuality,
		ExtractionConcurrency: DefaultExtractionConcurrency,
	}
}

// ApplyDensity sets the sampling density.
func (c *MosaicConfig) ApplyDensity(d density.Density) {
	c.Density = d
}

// Validate checks the configuration for errors.
func (c *MosaicConfig) Validate() error {
	if c.CanvasWidth < MinCanvasWidth || c.CanvasWidth > MaxCanvasWidth {
		return fmt.Errorf("%w: must be %d-%d, got %d", ErrInvalidCanvasWidth, MinCanvasWidth, MaxCanvasWidth, c.CanvasWidth)
	}

	if c.Spacing < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSpacing, c.Spacing)
	}

	if c.AspectRatio <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidAspectRatio, c.AspectRatio)
	}

	if c.Quality <= 0 || c.Quality > 1 {
		return fmt.Errorf("%w: must be in (0, 1], got %v", ErrInvalidQuality, c.Quality)
	}

	if c.MaxOutputBytes < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSizeBudget, c.MaxOutputBytes)
	}

	switch c.LayoutMode {
	case LayoutCustom, LayoutClassic, LayoutAuto, LayoutDynamic, LayoutCompactVertical:
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidLayoutMode, c.LayoutMode)
	}

	switch c.Format {
	case FormatWebP, FormatPNG, FormatJPEG:
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidFormat, c.Format)
	}

	if c.ExtractionConcurrency < 0 {
		return fmt.Errorf("%w: extraction concurrency %d", ErrInvalidConcurrency, c.ExtractionConcurrency)
	}

	if c.MaxConcurrentTasks < 0 {
		return fmt.Errorf("%w: max concurrent tasks %d", ErrInvalidConcurrency, c.MaxConcurrentTasks)
	}

	if c.Visual.BorderWidth < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBorder, c.Visual.BorderWidth)
	}

	return nil
}

// DisplayHint returns the display size used by the Auto layout.
func (c *MosaicConfig) DisplayHint() (int, int) {
	if c.DisplayWidth > 0 && c.DisplayHeight > 0 {
		return c.DisplayWidth, c.DisplayHeight
	}
	return DefaultDisplayWidth, DefaultDisplayHeight
}

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa" into an NRGBA color.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	parse := func(sub string) (uint8, bool) {
		var v uint8
		for _, r := range sub {
			var d uint8
			switch {
			case r >= '0' && r <= '9':
				d = uint8(r - '0')
			case r >= 'a' && r <= 'f':
				d = uint8(r-'a') + 10
			case r >= 'A' && r <= 'F':
				d = uint8(r-'A') + 10
			default:
				return 0, false
			}
			v = v<<4 | d
		}
		return v, true
	}

	c := color.NRGBA{A: 0xff}
	switch len(s) {
	case 3:
		r, ok1 := parse(s[0:1])
		g, ok2 := parse(s[1:2])
		b, ok3 := parse(s[2:3])
		if !ok1 || !ok2 || !ok3 {
			return c, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		c.R, c.G, c.B = r*17, g*17, b*17
	case 6, 8:
		r, ok1 := parse(s[0:2])
		g, ok2 := parse(s[2:4])
		b, ok3 := parse(s[4:6])
		if !ok1 || !ok2 || !ok3 {
			return c, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		c.R, c.G, c.B = r, g, b
		if len(s) == 8 {
			a, ok := parse(s[6:8])
			if !ok {
				return c, fmt.Errorf("%w: %q", ErrInvalidColor, s)
			}
			c.A = a
		}
	default:
		return c, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}
