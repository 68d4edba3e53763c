package framegrid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/framegrid/framegrid/internal/ffprobe"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/resource"
	"github.com/framegrid/framegrid/internal/sampler"
)

type stubProber struct {
	failFor string
}

func (p stubProber) Probe(_ context.Context, inputPath string) (*ffprobe.VideoInfo, error) {
	if p.failFor != "" && inputPath == p.failFor {
		return nil, fmt.Errorf("no such stream: %s", inputPath)
	}
	return &ffprobe.VideoInfo{
		DurationSecs: 12,
		Width:        640,
		Height:       360,
		FrameRate:    25,
		Codec:        "h264",
		SizeBytes:    1 << 20,
	}, nil
}

type solidSource struct{}

func (solidSource) Extract(context.Context, string, float64, float64) (image.Image, error) {
	return imaging.New(120, 68, color.NRGBA{R: 0x28, G: 0x30, B: 0x48, A: 0xff}), nil
}

func testGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()

	base := []Option{
		WithDensity(DensityMinimal),
		WithCanvasWidth(256),
		WithFormat(FormatPNG),
		WithConcurrency(1),
		WithMaxTasks(2),
		withBackends(pipeline.Backends{
			Prober:         stubProber{},
			NewFrameSource: func(pipeline.SourceSpec) sampler.FrameSource { return solidSource{} },
		}),
		withProbe(resource.FixedProbe{MemoryBytes: 64 << 30, Cores: 16}),
	}
	g, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := g.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return g
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", opts: nil},
		{name: "quality over one", opts: []Option{WithQuality(2)}, wantErr: true},
		{name: "canvas too narrow", opts: []Option{WithCanvasWidth(10)}, wantErr: true},
		{name: "negative spacing", opts: []Option{WithSpacing(-1)}, wantErr: true},
		{name: "negative concurrency", opts: []Option{WithConcurrency(-1)}, wantErr: true},
		{name: "negative size budget", opts: []Option{WithMaxOutputSize(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	g := testGenerator(t)
	outDir := t.TempDir()

	result, err := g.Generate(context.Background(), "/videos/movie.mkv", outDir)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := filepath.Join(outDir, "movie.png")
	if result.OutputFile != want {
		t.Errorf("OutputFile = %s, want %s", result.OutputFile, want)
	}
	info, err := os.Stat(result.OutputFile)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if uint64(info.Size()) != result.OutputSize {
		t.Errorf("OutputSize = %d, file is %d bytes", result.OutputSize, info.Size())
	}
	if result.FrameCount <= 0 {
		t.Errorf("FrameCount = %d, want > 0", result.FrameCount)
	}
	if !result.ValidationPassed {
		t.Error("ValidationPassed = false, want true")
	}

	m := g.Metrics()
	if m.Generations != 1 || m.Failures != 0 {
		t.Errorf("Metrics = %+v, want 1 generation and no failures", m)
	}
}

func writeStubVideos(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte("stub"), 0o644); err != nil {
			t.Fatalf("writing stub video: %v", err)
		}
	}
	return dir, paths
}

func TestGenerateBatch(t *testing.T) {
	_, inputs := writeStubVideos(t, "a.mkv", "b.mkv", "c.mkv")
	g := testGenerator(t, withBackends(pipeline.Backends{
		Prober:         stubProber{failFor: inputs[1]},
		NewFrameSource: func(pipeline.SourceSpec) sampler.FrameSource { return solidSource{} },
	}))
	outDir := t.TempDir()

	br, err := g.GenerateBatch(context.Background(), inputs, outDir)
	if err != nil {
		t.Fatalf("GenerateBatch() error = %v", err)
	}

	if br.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", br.TotalFiles)
	}
	if br.SuccessfulCount != 2 {
		t.Errorf("SuccessfulCount = %d, want 2", br.SuccessfulCount)
	}
	if br.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", br.FailedCount)
	}
	if len(br.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(br.Results))
	}
	if got := br.Results[0].OutputFile; got != filepath.Join(outDir, "a.png") {
		t.Errorf("Results[0].OutputFile = %s, want a.png first", got)
	}
	if got := br.Results[1].OutputFile; got != filepath.Join(outDir, "c.png") {
		t.Errorf("Results[1].OutputFile = %s, want c.png second", got)
	}

	var wantSize uint64
	for _, r := range br.Results {
		wantSize += r.OutputSize
	}
	if br.TotalOutputSize != wantSize {
		t.Errorf("TotalOutputSize = %d, want %d", br.TotalOutputSize, wantSize)
	}

	if tasks := g.Tasks(); len(tasks) != 3 {
		t.Errorf("len(Tasks()) = %d, want 3", len(tasks))
	}
}

func TestGenerateBatchExpandsDirectories(t *testing.T) {
	dir, _ := writeStubVideos(t, "b.mp4", "a.mkv")
	g := testGenerator(t)

	br, err := g.GenerateBatch(context.Background(), []string{dir}, t.TempDir())
	if err != nil {
		t.Fatalf("GenerateBatch() error = %v", err)
	}
	if br.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", br.TotalFiles)
	}
	if len(br.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(br.Results))
	}
	// Directory contents come out sorted by name.
	if got := filepath.Base(br.Results[0].OutputFile); got != "a.png" {
		t.Errorf("Results[0] = %s, want a.png first", got)
	}
}

func TestGenerateBatchRejectsMissingInput(t *testing.T) {
	g := testGenerator(t)
	if _, err := g.GenerateBatch(context.Background(), []string{"/nope/missing.mkv"}, t.TempDir()); err == nil {
		t.Fatal("GenerateBatch() succeeded with a missing input")
	}
}

func TestGenerateCancelled(t *testing.T) {
	g := testGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "/videos/movie.mkv", t.TempDir())
	if err == nil {
		t.Fatal("Generate() succeeded with a cancelled context")
	}
	if !IsCancelled(err) {
		t.Errorf("IsCancelled(%v) = false, want true", err)
	}

	m := g.Metrics()
	if m.Generations != 0 || m.Failures != 0 {
		t.Errorf("Metrics = %+v, want no generations and no failures", m)
	}
}

func TestEventHandler(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	handler := func(e Event) error {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
		return nil
	}

	g := testGenerator(t, WithEventHandler(handler))

	if _, err := g.Generate(context.Background(), "/videos/movie.mkv", t.TempDir()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	counts := make(map[EventType]int)
	var complete GenerationCompleteEvent
	for _, e := range events {
		counts[e.Type()]++
		if c, ok := e.(GenerationCompleteEvent); ok {
			complete = c
		}
	}

	if counts[EventTypeExtractionProgress] == 0 {
		t.Error("no extraction progress events")
	}
	if counts[EventTypeGenerationProgress] == 0 {
		t.Error("no generation progress events")
	}
	if counts[EventTypeValidationComplete] != 1 {
		t.Errorf("validation complete events = %d, want 1", counts[EventTypeValidationComplete])
	}
	if counts[EventTypeGenerationComplete] != 1 {
		t.Fatalf("generation complete events = %d, want 1", counts[EventTypeGenerationComplete])
	}
	if complete.OutputSize == 0 {
		t.Error("completion event OutputSize = 0")
	}
	if complete.Time == "" {
		t.Error("completion event has no timestamp")
	}
}

func TestGenerateRecordsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	g := testGenerator(t, WithHistory(dbPath))

	if _, err := g.Generate(context.Background(), "/videos/movie.mkv", t.TempDir()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	records, err := g.history.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.InputPath != "/videos/movie.mkv" {
		t.Errorf("InputPath = %s, want /videos/movie.mkv", rec.InputPath)
	}
	if rec.Status != "completed" {
		t.Errorf("Status = %s, want completed", rec.Status)
	}
	if rec.OutputSize == 0 {
		t.Error("OutputSize = 0, want > 0")
	}
}

func TestParseDensity(t *testing.T) {
	d, err := ParseDensity("high")
	if err != nil {
		t.Fatalf("ParseDensity(high) error = %v", err)
	}
	if d != DensityHigh {
		t.Errorf("ParseDensity(high) = %v, want %v", d, DensityHigh)
	}

	if _, err := ParseDensity("bogus"); err == nil {
		t.Error("ParseDensity(bogus) succeeded")
	}
}
