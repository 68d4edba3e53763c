package cropdetect

import (
	"strings"
	"testing"
)

func TestPick(t *testing.T) {
	tests := []struct {
		name       string
		counts     map[string]int
		wantFilter string
		wantCrop   bool
		wantMulti  bool
	}{
		{
			name:   "no samples",
			counts: map[string]int{},
		},
		{
			name:       "unanimous letterbox",
			counts:     map[string]int{"1920:800:0:140": 15},
			wantFilter: "crop=1920:800:0:140",
			wantCrop:   true,
		},
		{
			name: "dominant crop wins over noise",
			counts: map[string]int{
				"1920:800:0:140": 13,
				"1920:1080:0:0":  2,
			},
			wantFilter: "crop=1920:800:0:140",
			wantCrop:   true,
		},
		{
			name: "clear winner with trace noise",
			counts: map[string]int{
				"1920:800:0:140": 14,
				"1920:804:0:138": 1,
				"1920:790:0:144": 1,
				"1920:796:0:142": 1,
				"1920:810:0:134": 1,
				"1920:802:0:139": 1,
				"1920:806:0:136": 1,
				"1920:808:0:135": 1,
			},
			wantFilter: "crop=1920:800:0:140",
			wantCrop:   true,
		},
		{
			name: "competing aspect ratios stay uncropped",
			counts: map[string]int{
				"1920:800:0:140": 8,
				"1920:1080:0:0":  7,
			},
			wantMulti: true,
		},
		{
			name:   "full-frame crop is not a crop",
			counts: map[string]int{"1920:1080:0:0": 15},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pick(tt.counts, 1920, 1080)
			if got.Required != tt.wantCrop {
				t.Errorf("Required = %v, want %v", got.Required, tt.wantCrop)
			}
			if got.Filter != tt.wantFilter {
				t.Errorf("Filter = %q, want %q", got.Filter, tt.wantFilter)
			}
			if got.MultipleRatios != tt.wantMulti {
				t.Errorf("MultipleRatios = %v, want %v", got.MultipleRatios, tt.wantMulti)
			}
			if !got.Required {
				if got.Width != 1920 || got.Height != 1080 {
					t.Errorf("uncropped dims = %dx%d, want source 1920x1080", got.Width, got.Height)
				}
			}
		})
	}
}

func TestPickCroppedDimensions(t *testing.T) {
	got := pick(map[string]int{"1920:800:0:140": 10}, 1920, 1080)
	if got.Width != 1920 || got.Height != 800 {
		t.Errorf("cropped dims = %dx%d, want 1920x800", got.Width, got.Height)
	}
	if got.Samples != 10 {
		t.Errorf("Samples = %d, want 10", got.Samples)
	}
}

func TestMostCommonCrop(t *testing.T) {
	log := strings.Join([]string{
		"[Parsed_cropdetect_0 @ 0x5617] x1:0 x2:1919 y1:138 y2:941 w:1920 h:800 x:0 y:140 pts:1 t:0.04 crop=1920:800:0:140",
		"[Parsed_cropdetect_0 @ 0x5617] x1:0 x2:1919 y1:139 y2:940 w:1920 h:800 x:0 y:140 pts:2 t:0.08 crop=1920:800:0:140",
		"[Parsed_cropdetect_0 @ 0x5617] x1:0 x2:1919 y1:0 y2:1079 w:1920 h:1080 x:0 y:0 pts:3 t:0.12 crop=1920:1080:0:0",
		"frame=   10 fps=0.0 q=-0.0 Lsize=N/A time=00:00:00.40 bitrate=N/A",
	}, "\n")

	if got := mostCommonCrop(strings.NewReader(log)); got != "1920:800:0:140" {
		t.Errorf("mostCommonCrop() = %q, want %q", got, "1920:800:0:140")
	}
}

func TestMostCommonCropNoMatches(t *testing.T) {
	if got := mostCommonCrop(strings.NewReader("nothing to see\n")); got != "" {
		t.Errorf("mostCommonCrop() = %q, want empty", got)
	}
}

func TestCropDims(t *testing.T) {
	tests := []struct {
		crop   string
		w, h   int
		wantOK bool
	}{
		{"1920:800:0:140", 1920, 800, true},
		{"3840:1632:0:264", 3840, 1632, true},
		{"1920:800:0", 0, 0, false},
		{"1920:800:0:140:9", 0, 0, false},
		{"w:h:x:y", 0, 0, false},
		{"0:800:0:140", 0, 0, false},
		{"1920:0:0:140", 0, 0, false},
		{"-1920:800:0:140", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, ok := cropDims(tt.crop)
		if ok != tt.wantOK || w != tt.w || h != tt.h {
			t.Errorf("cropDims(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.crop, w, h, ok, tt.w, tt.h, tt.wantOK)
		}
	}
}

func TestSampleArgs(t *testing.T) {
	args := sampleArgs("movie.mkv", 123.456, 16)

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-ss 123.46") {
		t.Errorf("args %q missing rounded seek", joined)
	}
	if !strings.Contains(joined, "cropdetect=limit=16:") {
		t.Errorf("args %q missing threshold", joined)
	}
	if args[len(args)-1] != "-" || args[len(args)-2] != "null" {
		t.Errorf("args %v must discard decoded output", args)
	}
}
