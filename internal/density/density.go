// Package density maps video duration and canvas width to target thumbnail counts.
package density

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/framegrid/framegrid/internal/errors"
)

const (
	// MinCount is the lower bound on the target thumbnail count.
	MinCount = 4

	// MaxCount is the upper bound on the target thumbnail count.
	MaxCount = 800

	// baseWidthDivisor converts canvas width into the width-driven base count.
	baseWidthDivisor = 160.0

	// longVideoThresholdSecs is where the duration term starts getting boosted.
	longVideoThresholdSecs = 1800.0

	// longVideoBoost scales the duration term for long videos.
	longVideoBoost = 1.5

	// customExtractsMultiplier is used for arbitrary custom factors.
	customExtractsMultiplier = 4.0
)

// Density controls how many frames are sampled from a video.
type Density struct {
	Name               string
	Factor             float64
	ExtractsMultiplier float64
}

// Named density presets, from sparsest to densest.
var (
	Minimal  = Density{Name: "minimal", Factor: 0.25, ExtractsMultiplier: 2.0}
	Low      = Density{Name: "low", Factor: 0.5, ExtractsMultiplier: 3.0}
	Reduced  = Density{Name: "reduced", Factor: 0.75, ExtractsMultiplier: 3.5}
	Standard = Density{Name: "standard", Factor: 1.0, ExtractsMultiplier: 4.0}
	High     = Density{Name: "high", Factor: 1.5, ExtractsMultiplier: 5.0}
	Dense    = Density{Name: "dense", Factor: 2.0, ExtractsMultiplier: 6.0}
	Maximum  = Density{Name: "maximum", Factor: 4.0, ExtractsMultiplier: 8.0}
)

// Presets returns the named presets in ascending factor order.
func Presets() []Density {
	return []Density{Minimal, Low, Reduced, Standard, High, Dense, Maximum}
}

// Custom creates a density with an arbitrary positive factor.
func Custom(factor float64) (Density, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Density{}, errors.NewInvalidConfigError(
			fmt.Sprintf("density factor must be positive, got %v", factor))
	}
	return Density{
		Name:               "custom",
		Factor:             factor,
		ExtractsMultiplier: customExtractsMultiplier,
	}, nil
}

// Parse resolves a preset name or a numeric custom factor.
func Parse(s string) (Density, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Presets() {
		if p.Name == name {
			return p, nil
		}
	}
	if factor, err := strconv.ParseFloat(name, 64); err == nil {
		return Custom(factor)
	}
	return Density{}, errors.NewInvalidConfigError(
		fmt.Sprintf("unknown density %q, valid presets: minimal, low, reduced, standard, high, dense, maximum, or a numeric factor", s))
}

// String returns the preset name, or the factor for custom densities.
func (d Density) String() string {
	if d.Name == "custom" {
		return fmt.Sprintf("custom(%.2f)", d.Factor)
	}
	return d.Name
}

// TargetCount computes the target thumbnail count for a video.
//
// A width-driven base count grows with canvas width and density factor. A
// duration term proportional to log(duration) is added so long videos sample
// denser without growing linearly, with an extra boost past the long-video
// threshold. The result is clamped to [MinCount, MaxCount].
func (d Density) TargetCount(durationSecs float64, canvasWidth int) (int, error) {
	if durationSecs <= 0 || math.IsNaN(durationSecs) {
		return 0, errors.NewInvalidConfigError(
			fmt.Sprintf("video duration must be positive, got %v", durationSecs))
	}
	if canvasWidth <= 0 {
		return 0, errors.NewInvalidConfigError(
			fmt.Sprintf("canvas width must be positive, got %d", canvasWidth))
	}

	base := float64(canvasWidth) / baseWidthDivisor * d.Factor

	boost := 1.0
	if durationSecs > longVideoThresholdSecs {
		boost = longVideoBoost
	}
	durationTerm := math.Log(durationSecs) * d.ExtractsMultiplier * boost

	count := int(math.Round(base + durationTerm))
	if count < MinCount {
		count = MinCount
	}
	if count > MaxCount {
		count = MaxCount
	}
	return count, nil
}
