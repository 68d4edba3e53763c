package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/framegrid/framegrid/internal/density"
	"github.com/framegrid/framegrid/internal/util"
)

// FileConfig mirrors MosaicConfig for YAML config files. Zero values keep the
// defaults; bools use pointers so an explicit false can be expressed.
type FileConfig struct {
	OutputDir string `yaml:"output_dir"`
	LogDir    string `yaml:"log_dir"`

	CanvasWidth   int     `yaml:"canvas_width"`
	AspectRatio   float64 `yaml:"aspect_ratio"`
	Layout        string  `yaml:"layout"`
	Spacing       *int    `yaml:"spacing"`
	DisplayWidth  int     `yaml:"display_width"`
	DisplayHeight int     `yaml:"display_height"`

	Density            string `yaml:"density"`
	AccurateTimestamps *bool  `yaml:"accurate_timestamps"`
	MetadataHeader     *bool  `yaml:"metadata_header"`
	CropBars           *bool  `yaml:"crop_bars"`

	Format  string  `yaml:"format"`
	Quality float64 `yaml:"quality"`

	// MaxOutputSize accepts human sizes like "2MB".
	MaxOutputSize string `yaml:"max_output_size"`

	ExtractionConcurrency int `yaml:"extraction_concurrency"`
	MaxConcurrentTasks    int `yaml:"max_concurrent_tasks"`

	Border struct {
		Width int    `yaml:"width"`
		Color string `yaml:"color"`
	} `yaml:"border"`

	Shadow struct {
		Enabled *bool `yaml:"enabled"`
		Offset  int   `yaml:"offset"`
	} `yaml:"shadow"`

	Background struct {
		Style string `yaml:"style"`
		Color string `yaml:"color"`
	} `yaml:"background"`
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &fc, nil
}

// Apply merges the file values onto cfg. Fields absent from the file keep
// their current values. Flag handling in the CLI runs after Apply, so flags
// win over the file.
func (f *FileConfig) Apply(cfg *MosaicConfig) error {
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
	if f.LogDir != "" {
		cfg.LogDir = f.LogDir
	}
	if f.CanvasWidth != 0 {
		cfg.CanvasWidth = f.CanvasWidth
	}
	if f.AspectRatio != 0 {
		cfg.AspectRatio = f.AspectRatio
	}
	if f.Layout != "" {
		mode, err := ParseLayoutMode(f.Layout)
		if err != nil {
			return err
		}
		cfg.LayoutMode = mode
	}
	if f.Spacing != nil {
		cfg.Spacing = *f.Spacing
	}
	if f.DisplayWidth != 0 {
		cfg.DisplayWidth = f.DisplayWidth
	}
	if f.DisplayHeight != 0 {
		cfg.DisplayHeight = f.DisplayHeight
	}
	if f.Density != "" {
		d, err := density.Parse(f.Density)
		if err != nil {
			return err
		}
		cfg.Density = d
	}
	if f.AccurateTimestamps != nil {
		cfg.AccurateTimestamps = *f.AccurateTimestamps
	}
	if f.CropBars != nil {
		cfg.CropBars = *f.CropBars
	}
	if f.MetadataHeader != nil {
		cfg.IncludeMetadata = *f.MetadataHeader
	}
	if f.Format != "" {
		format, err := ParseOutputFormat(f.Format)
		if err != nil {
			return err
		}
		cfg.Format = format
	}
	if f.Quality != 0 {
		cfg.Quality = f.Quality
	}
	if f.MaxOutputSize != "" {
		n, err := util.ParseByteSize(f.MaxOutputSize)
		if err != nil {
			return err
		}
		cfg.MaxOutputBytes = n
	}
	if f.ExtractionConcurrency != 0 {
		cfg.ExtractionConcurrency = f.ExtractionConcurrency
	}
	if f.MaxConcurrentTasks != 0 {
		cfg.MaxConcurrentTasks = f.MaxConcurrentTasks
	}
	if f.Border.Width != 0 {
		cfg.Visual.BorderWidth = f.Border.Width
	}
	if f.Border.Color != "" {
		c, err := ParseHexColor(f.Border.Color)
		if err != nil {
			return err
		}
		cfg.Visual.BorderColor = c
	}
	if f.Shadow.Enabled != nil {
		cfg.Visual.ShadowEnabled = *f.Shadow.Enabled
	}
	if f.Shadow.Offset != 0 {
		cfg.Visual.ShadowOffset = f.Shadow.Offset
	}
	if f.Background.Style != "" {
		switch BackgroundStyle(f.Background.Style) {
		case BackgroundGradient, BackgroundFlat:
			cfg.Visual.Background = BackgroundStyle(f.Background.Style)
		default:
			return fmt.Errorf("invalid background style %q, valid options: gradient, flat", f.Background.Style)
		}
	}
	if f.Background.Color != "" {
		c, err := ParseHexColor(f.Background.Color)
		if err != nil {
			return err
		}
		cfg.Visual.BackgroundColor = c
	}
	return nil
}
