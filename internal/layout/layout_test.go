package layout

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/errors"
)

func defaultParams(mode config.LayoutMode, count int) Params {
	return Params{
		VideoAspectRatio:  16.0 / 9.0,
		TargetAspectRatio: 16.0 / 9.0,
		Count:             count,
		CanvasWidth:       2048,
		Spacing:           4,
		Mode:              mode,
	}
}

func allModes() []config.LayoutMode {
	return []config.LayoutMode{
		config.LayoutCustom,
		config.LayoutClassic,
		config.LayoutAuto,
		config.LayoutDynamic,
		config.LayoutCompactVertical,
	}
}

func checkGeometry(t *testing.T, g *Grid) {
	t.Helper()

	if len(g.Positions) != len(g.ThumbSizes) {
		t.Fatalf("positions %d != sizes %d", len(g.Positions), len(g.ThumbSizes))
	}
	for i, pos := range g.Positions {
		sz := g.ThumbSizes[i]
		if sz.Width < 1 || sz.Height < 1 {
			t.Errorf("thumbnail %d has degenerate size %dx%d", i, sz.Width, sz.Height)
		}
		if pos.X < 0 || pos.Y < 0 || pos.X+sz.Width > g.CanvasSize.Width || pos.Y+sz.Height > g.CanvasSize.Height {
			t.Errorf("thumbnail %d at (%d,%d) size %dx%d outside canvas %dx%d",
				i, pos.X, pos.Y, sz.Width, sz.Height, g.CanvasSize.Width, g.CanvasSize.Height)
		}
	}
	for i := range g.Positions {
		for j := i + 1; j < len(g.Positions); j++ {
			a, b := g.Positions[i], g.Positions[j]
			sa, sb := g.ThumbSizes[i], g.ThumbSizes[j]
			sepX := a.X+sa.Width <= b.X || b.X+sb.Width <= a.X
			sepY := a.Y+sa.Height <= b.Y || b.Y+sb.Height <= a.Y
			if !sepX && !sepY {
				t.Errorf("thumbnails %d and %d overlap", i, j)
			}
		}
	}
}

func TestComputeInvariants(t *testing.T) {
	counts := []int{1, 4, 25, 100, 347}

	for _, mode := range allModes() {
		for _, count := range counts {
			t.Run(fmt.Sprintf("%s/%d", mode, count), func(t *testing.T) {
				g, err := Compute(defaultParams(mode, count))
				if err != nil {
					t.Fatalf("Compute() error = %v", err)
				}
				checkGeometry(t, g)

				// Custom optimizes toward the requested count; the other
				// modes match it exactly.
				if mode == config.LayoutCustom {
					if g.Count() < MinCount {
						t.Errorf("custom grid placed %d thumbnails, want at least %d", g.Count(), MinCount)
					}
				} else if g.Count() != count {
					t.Errorf("grid placed %d thumbnails, want %d", g.Count(), count)
				}
			})
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	for _, mode := range allModes() {
		t.Run(string(mode), func(t *testing.T) {
			p := defaultParams(mode, 50)
			a, err := Compute(p)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			b, err := Compute(p)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if !reflect.DeepEqual(a, b) {
				t.Error("identical params produced different grids")
			}
		})
	}
}

func TestClassicGeometry(t *testing.T) {
	tests := []struct {
		count    int
		wantCols int
		wantRows int
	}{
		{1, 2, 1},
		{4, 3, 2},
		{12, 5, 3},
		{100, 14, 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("count=%d", tt.count), func(t *testing.T) {
			g, err := Compute(defaultParams(config.LayoutClassic, tt.count))
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if g.Cols != tt.wantCols {
				t.Errorf("Cols = %d, want %d", g.Cols, tt.wantCols)
			}
			if g.Rows != tt.wantRows {
				t.Errorf("Rows = %d, want %d", g.Rows, tt.wantRows)
			}
			if g.Count() != tt.count {
				t.Errorf("Count() = %d, want %d", g.Count(), tt.count)
			}
			// Uniform sizing.
			for i, sz := range g.ThumbSizes {
				if sz != g.ThumbSize {
					t.Fatalf("thumbnail %d size %v differs from uniform %v", i, sz, g.ThumbSize)
				}
			}
		})
	}
}

func TestClassicInfeasibleWidth(t *testing.T) {
	p := defaultParams(config.LayoutClassic, 25)
	p.CanvasWidth = 256
	p.Spacing = 60

	_, err := Compute(p)
	if !errors.IsKind(err, errors.KindLayoutFailed) {
		t.Errorf("expected layout failure, got %v", err)
	}
}

func TestCustomZoneStructure(t *testing.T) {
	g, err := Compute(defaultParams(config.LayoutCustom, 100))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	checkGeometry(t, g)

	if diff := g.Count() - 100; diff < -20 || diff > 20 {
		t.Errorf("custom grid placed %d thumbnails for a target of 100", g.Count())
	}

	// Two distinct sizes: small in the outer zones, large in the center.
	small, large := g.ThumbSizes[0], g.ThumbSize
	if large.Width <= small.Width || large.Height <= small.Height {
		t.Errorf("large %v not strictly larger than small %v", large, small)
	}
	for i, sz := range g.ThumbSizes {
		if sz != small && sz != large {
			t.Fatalf("thumbnail %d has unexpected size %v", i, sz)
		}
	}

	// Large thumbnails form one contiguous center band.
	first, last := -1, -1
	for i, sz := range g.ThumbSizes {
		if sz == large {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first <= 0 || last >= len(g.ThumbSizes)-1 {
		t.Fatalf("center band [%d,%d] touches the grid edges", first, last)
	}
	for i := first; i <= last; i++ {
		if g.ThumbSizes[i] != large {
			t.Errorf("thumbnail %d inside center band has small size", i)
		}
	}
}

func TestCustomFallbackReducesCount(t *testing.T) {
	p := defaultParams(config.LayoutCustom, 800)
	p.CanvasWidth = 256
	p.Spacing = 10

	g, err := Compute(p)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	checkGeometry(t, g)
	if g.Count() >= 800 {
		t.Errorf("expected reduced thumbnail count, got %d", g.Count())
	}
	if g.Count() < MinCount {
		t.Errorf("reduced count %d fell below floor %d", g.Count(), MinCount)
	}
}

func TestCustomFallbackTerminates(t *testing.T) {
	p := defaultParams(config.LayoutCustom, 500)
	p.CanvasWidth = 256
	p.Spacing = 60

	_, err := Compute(p)
	if !errors.IsKind(err, errors.KindLayoutFailed) {
		t.Errorf("expected layout failure after exhausting reduction, got %v", err)
	}
}

func TestDynamicCenterWeighting(t *testing.T) {
	g, err := Compute(defaultParams(config.LayoutDynamic, 10))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	checkGeometry(t, g)

	sizes := g.ThumbSizes
	if sizes[5].Width <= sizes[0].Width {
		t.Errorf("center thumbnail %v not larger than edge %v", sizes[5], sizes[0])
	}
	// The midpoint carries the full 1.5x multiplier.
	want := (g.ThumbSize.Width*3 + 1) / 2
	if diff := sizes[5].Width - want; diff < -1 || diff > 1 {
		t.Errorf("center width = %d, want about %d", sizes[5].Width, want)
	}
	// Widths ramp up to the center and back down.
	for i := 0; i < 5; i++ {
		if sizes[i].Width > sizes[i+1].Width {
			t.Errorf("width shrinks before center: sizes[%d]=%d > sizes[%d]=%d", i, sizes[i].Width, i+1, sizes[i+1].Width)
		}
	}
	for i := 5; i < 9; i++ {
		if sizes[i].Width < sizes[i+1].Width {
			t.Errorf("width grows after center: sizes[%d]=%d < sizes[%d]=%d", i, sizes[i].Width, i+1, sizes[i+1].Width)
		}
	}
}

func TestCompactVertical(t *testing.T) {
	g, err := Compute(defaultParams(config.LayoutCompactVertical, 5))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	checkGeometry(t, g)

	if g.Cols != 1 || g.Rows != 5 {
		t.Errorf("expected 5x1 grid, got %dx%d", g.Rows, g.Cols)
	}
	wantH := 1152 // round(2048 / (16/9))
	if g.ThumbSize.Height != wantH {
		t.Errorf("ThumbSize.Height = %d, want %d", g.ThumbSize.Height, wantH)
	}
	for i, pos := range g.Positions {
		if pos.X != 0 {
			t.Errorf("thumbnail %d at x=%d, want 0", i, pos.X)
		}
		if want := i * (wantH + 4); pos.Y != want {
			t.Errorf("thumbnail %d at y=%d, want %d", i, pos.Y, want)
		}
		if g.ThumbSizes[i].Width != 2048 {
			t.Errorf("thumbnail %d width = %d, want full canvas width", i, g.ThumbSizes[i].Width)
		}
	}
	if want := 5*wantH + 4*4; g.CanvasSize.Height != want {
		t.Errorf("CanvasSize.Height = %d, want %d", g.CanvasSize.Height, want)
	}
}

func TestAutoUsesDisplayHint(t *testing.T) {
	auto := defaultParams(config.LayoutAuto, 24)
	auto.DisplayWidth = 1024
	auto.DisplayHeight = 768

	classic := defaultParams(config.LayoutClassic, 24)
	classic.CanvasWidth = 1024
	classic.TargetAspectRatio = 1024.0 / 768.0

	a, err := Compute(auto)
	if err != nil {
		t.Fatalf("Compute(auto) error = %v", err)
	}
	c, err := Compute(classic)
	if err != nil {
		t.Fatalf("Compute(classic) error = %v", err)
	}
	if !reflect.DeepEqual(a, c) {
		t.Error("auto with display hint does not match classic at hint geometry")
	}

	// Without a hint, auto matches classic at the configured geometry.
	noHint := defaultParams(config.LayoutAuto, 24)
	base := defaultParams(config.LayoutClassic, 24)
	a2, err := Compute(noHint)
	if err != nil {
		t.Fatalf("Compute(auto, no hint) error = %v", err)
	}
	c2, err := Compute(base)
	if err != nil {
		t.Fatalf("Compute(classic) error = %v", err)
	}
	if !reflect.DeepEqual(a2, c2) {
		t.Error("auto without display hint does not match classic")
	}
}

func TestComputeInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero count", func(p *Params) { p.Count = 0 }},
		{"zero canvas width", func(p *Params) { p.CanvasWidth = 0 }},
		{"negative spacing", func(p *Params) { p.Spacing = -1 }},
		{"zero video aspect", func(p *Params) { p.VideoAspectRatio = 0 }},
		{"negative target aspect", func(p *Params) { p.TargetAspectRatio = -2 }},
		{"unknown mode", func(p *Params) { p.Mode = "spiral" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams(config.LayoutClassic, 10)
			tt.modify(&p)
			_, err := Compute(p)
			if !errors.IsKind(err, errors.KindInvalidConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}
