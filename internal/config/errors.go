package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidCanvasWidth indicates a canvas width outside the valid range.
	ErrInvalidCanvasWidth = errors.New("canvas width out of range")

	// ErrInvalidSpacing indicates a negative thumbnail spacing.
	ErrInvalidSpacing = errors.New("spacing must not be negative")

	// ErrInvalidQuality indicates a compression quality outside (0, 1].
	ErrInvalidQuality = errors.New("quality out of range")

	// ErrInvalidSizeBudget indicates a negative output size cap.
	ErrInvalidSizeBudget = errors.New("output size budget must not be negative")

	// ErrInvalidAspectRatio indicates a non-positive target aspect ratio.
	ErrInvalidAspectRatio = errors.New("aspect ratio must be positive")

	// ErrInvalidLayoutMode indicates an unknown layout mode name.
	ErrInvalidLayoutMode = errors.New("invalid layout mode")

	// ErrInvalidFormat indicates an unknown output image format.
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidConcurrency indicates a negative concurrency setting.
	ErrInvalidConcurrency = errors.New("concurrency must not be negative")

	// ErrInvalidColor indicates an unparseable hex color string.
	ErrInvalidColor = errors.New("invalid hex color")

	// ErrInvalidBorder indicates a negative border width.
	ErrInvalidBorder = errors.New("border width must not be negative")
)
