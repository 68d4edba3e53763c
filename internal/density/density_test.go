package density

import (
	"testing"

	"github.com/framegrid/framegrid/internal/errors"
)

func TestTargetCountBounds(t *testing.T) {
	durations := []float64{0.5, 1, 10, 60, 600, 1800, 3600, 7200, 36000}
	widths := []int{256, 640, 1024, 2048, 4096, 16384}

	for _, d := range Presets() {
		for _, dur := range durations {
			for _, w := range widths {
				count, err := d.TargetCount(dur, w)
				if err != nil {
					t.Fatalf("TargetCount(%v, %d) with %s: %v", dur, w, d.Name, err)
				}
				if count < MinCount || count > MaxCount {
					t.Errorf("TargetCount(%v, %d) with %s = %d, want within [%d, %d]",
						dur, w, d.Name, count, MinCount, MaxCount)
				}
			}
		}
	}
}

func TestTargetCountMonotonicInFactor(t *testing.T) {
	presets := Presets()
	for i := 1; i < len(presets); i++ {
		lo, hi := presets[i-1], presets[i]
		// Hold the duration term equal by comparing only width-driven growth:
		// presets also raise ExtractsMultiplier, so the full count is
		// non-decreasing as well.
		for _, dur := range []float64{30, 600, 7200} {
			for _, w := range []int{640, 2048, 4096} {
				cLo, err := lo.TargetCount(dur, w)
				if err != nil {
					t.Fatal(err)
				}
				cHi, err := hi.TargetCount(dur, w)
				if err != nil {
					t.Fatal(err)
				}
				if cHi < cLo {
					t.Errorf("count decreased from %s (%d) to %s (%d) at dur=%v width=%d",
						lo.Name, cLo, hi.Name, cHi, dur, w)
				}
			}
		}
	}
}

func TestTargetCountLongVideoBoost(t *testing.T) {
	// Just above the threshold samples denser than just below it beyond what
	// the log alone provides.
	below, err := Standard.TargetCount(1799, 2048)
	if err != nil {
		t.Fatal(err)
	}
	above, err := Standard.TargetCount(1801, 2048)
	if err != nil {
		t.Fatal(err)
	}
	if above <= below {
		t.Errorf("expected boosted count above threshold: below=%d above=%d", below, above)
	}
}

func TestTargetCountInvalidInputs(t *testing.T) {
	for _, dur := range []float64{0, -1, -0.001} {
		_, err := Standard.TargetCount(dur, 2048)
		if err == nil {
			t.Errorf("TargetCount(%v, 2048) expected error", dur)
			continue
		}
		if !errors.IsKind(err, errors.KindInvalidConfiguration) {
			t.Errorf("TargetCount(%v, 2048) error kind = %v, want KindInvalidConfiguration", dur, err)
		}
	}

	if _, err := Standard.TargetCount(60, 0); err == nil {
		t.Error("TargetCount with zero width expected error")
	}
}

func TestTargetCountClampFloor(t *testing.T) {
	// Tiny canvas and very short video still yield the minimum count.
	count, err := Minimal.TargetCount(1, 256)
	if err != nil {
		t.Fatal(err)
	}
	if count != MinCount {
		t.Errorf("TargetCount(1, 256) minimal = %d, want clamp to %d", count, MinCount)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"standard", "standard", false},
		{"STANDARD", "standard", false},
		{" Dense ", "dense", false},
		{"minimal", "minimal", false},
		{"1.5", "custom", false},
		{"0.3", "custom", false},
		{"0", "", true},
		{"-2", "", true},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got.Name != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got.Name, tt.want)
			}
		})
	}
}

func TestCustom(t *testing.T) {
	d, err := Custom(1.25)
	if err != nil {
		t.Fatal(err)
	}
	if d.Factor != 1.25 {
		t.Errorf("Factor = %v, want 1.25", d.Factor)
	}

	if _, err := Custom(0); err == nil {
		t.Error("Custom(0) expected error")
	}
}
