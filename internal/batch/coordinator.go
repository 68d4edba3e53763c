package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/resource"
	"github.com/framegrid/framegrid/internal/util"
)

// Outcome is one video's final state after a batch run, in request order.
type Outcome struct {
	TaskID    string
	InputPath string
	Result    *pipeline.Result
	Err       error
}

// Metrics summarizes the coordinator's completed work. Durations cover
// successful generations only; failures are counted but would skew the
// average, so they are excluded from it.
type Metrics struct {
	Generations     int
	Failures        int
	LastDuration    time.Duration
	AverageDuration time.Duration
}

// Coordinator runs generation tasks with bounded parallelism and tracks
// them in a registry keyed by task id.
type Coordinator struct {
	cfg      *config.MosaicConfig
	backends pipeline.Backends
	probe    resource.Probe
	rep      reporter.Reporter

	mu       sync.Mutex
	tasks    map[string]*Task
	order    []*Task
	onFinish func(*Task)

	slotsOnce sync.Once
	slots     chan struct{}

	metricsMu     sync.Mutex
	generations   int
	failures      int
	lastDuration  time.Duration
	totalDuration time.Duration
}

// NewCoordinator creates a coordinator. The config supplies defaults for
// tasks submitted without their own.
func NewCoordinator(cfg *config.MosaicConfig, backends pipeline.Backends, probe resource.Probe, rep reporter.Reporter) *Coordinator {
	if probe == nil {
		probe = resource.NewSystemProbe()
	}
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Coordinator{
		cfg:      cfg,
		backends: backends,
		probe:    probe,
		rep:      rep,
		tasks:    make(map[string]*Task),
	}
}

// Limit returns the number of tasks allowed to run concurrently: the
// smallest of the memory-derived, CPU-derived and user-configured limits.
func (c *Coordinator) Limit(ctx context.Context) int {
	return resource.EffectiveLimit(ctx, c.probe, c.cfg.MaxConcurrentTasks)
}

// Submit registers a new queued task. A nil config uses the
// coordinator's default. The task does not run until Run or StartAsync
// picks it up.
func (c *Coordinator) Submit(cfg *config.MosaicConfig, req pipeline.Request) *Task {
	if cfg == nil {
		cfg = c.cfg
	}
	t := newTask(cfg, req)

	c.mu.Lock()
	c.tasks[t.id] = t
	c.order = append(c.order, t)
	c.mu.Unlock()
	return t
}

// Task returns a snapshot of the task with the given id.
func (c *Coordinator) Task(id string) (Snapshot, bool) {
	c.mu.Lock()
	t, ok := c.tasks[id]
	c.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return t.Snapshot(), true
}

// Snapshots returns all known tasks in submission order.
func (c *Coordinator) Snapshots() []Snapshot {
	c.mu.Lock()
	order := make([]*Task, len(c.order))
	copy(order, c.order)
	c.mu.Unlock()

	snaps := make([]Snapshot, len(order))
	for i, t := range order {
		snaps[i] = t.Snapshot()
	}
	return snaps
}

// Cancel requests cancellation of one task. It returns false when the id
// is unknown. Cancelling a terminal task is a no-op.
func (c *Coordinator) Cancel(id string) bool {
	c.mu.Lock()
	t, ok := c.tasks[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	t.requestCancel()
	return true
}

// SetOnFinish registers a hook invoked with every task a worker brings
// to a terminal state. Serve and watch modes use it to persist history.
// Tasks cancelled while still queued, before any worker picks them up,
// are not reported.
func (c *Coordinator) SetOnFinish(fn func(*Task)) {
	c.mu.Lock()
	c.onFinish = fn
	c.mu.Unlock()
}

func (c *Coordinator) notifyFinish(t *Task) {
	c.mu.Lock()
	fn := c.onFinish
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

// CancelAll requests cancellation of every non-terminal task.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	tasks := make([]*Task, len(c.order))
	copy(tasks, c.order)
	c.mu.Unlock()

	for _, t := range tasks {
		t.requestCancel()
	}
}

// Run generates mosaics for the given requests with bounded parallelism
// and returns outcomes in request order. One video's failure never
// cancels its siblings; each outcome carries its own error.
func (c *Coordinator) Run(ctx context.Context, reqs []pipeline.Request) []Outcome {
	if len(reqs) == 0 {
		return nil
	}

	tasks := make([]*Task, len(reqs))
	for i, req := range reqs {
		tasks[i] = c.Submit(nil, req)
	}
	return c.RunTasks(ctx, tasks)
}

// RunTasks runs already-submitted tasks to completion and returns
// outcomes in task order. It lets callers run tasks carrying their own
// per-task config, which Run cannot express.
func (c *Coordinator) RunTasks(ctx context.Context, tasks []*Task) []Outcome {
	if len(tasks) == 0 {
		return nil
	}

	limit := c.Limit(ctx)
	logging.Debug("starting batch run", "files", len(tasks), "limit", limit)

	host := resource.GetHostInfo(ctx, c.probe)
	c.rep.Hardware(reporter.HardwareSummary{
		Hostname:    host.Hostname,
		Cores:       host.NumCPU,
		MemoryBytes: host.TotalMemory,
		TaskLimit:   limit,
	})

	if len(tasks) > 1 {
		var names []string
		for _, t := range tasks {
			names = append(names, util.GetFilename(t.InputPath()))
		}
		c.rep.BatchStarted(reporter.BatchStartInfo{
			TotalFiles: len(tasks),
			FileList:   names,
			OutputDir:  c.cfg.OutputDir,
		})
	}

	var started atomic.Int32
	var g errgroup.Group
	g.SetLimit(limit)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if len(tasks) > 1 {
				c.rep.FileProgress(reporter.FileProgressContext{
					CurrentFile: int(started.Add(1)),
					TotalFiles:  len(tasks),
				})
			}
			c.runTask(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		c.rep.Warning(fmt.Sprintf("Generation cancelled: %v", ctx.Err()))
	}

	outcomes := make([]Outcome, len(tasks))
	for i, t := range tasks {
		result, err := t.Outcome()
		outcomes[i] = Outcome{
			TaskID:    t.ID(),
			InputPath: t.InputPath(),
			Result:    result,
			Err:       err,
		}
	}

	c.summarize(outcomes)
	return outcomes
}

// StartAsync runs a submitted task in the background once a slot under
// the coordinator's concurrency limit frees up. Cancelling ctx while the
// task is still waiting cancels it without running.
func (c *Coordinator) StartAsync(ctx context.Context, t *Task) {
	c.slotsOnce.Do(func() {
		c.slots = make(chan struct{}, c.Limit(ctx))
	})

	go func() {
		select {
		case c.slots <- struct{}{}:
		case <-ctx.Done():
			t.requestCancel()
			return
		}
		defer func() { <-c.slots }()
		c.runTask(ctx, t)
	}()
}

// runTask executes one task end to end and records its outcome. The task
// worker is the sole writer of task state during the run.
func (c *Coordinator) runTask(ctx context.Context, t *Task) {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !t.begin(cancel) {
		c.notifyFinish(t)
		return
	}

	req := t.req
	userProgress := req.OnProgress
	req.OnProgress = func(fraction float64) {
		t.setProgress(fraction)
		if userProgress != nil {
			userProgress(fraction)
		}
	}

	start := time.Now()
	result, err := pipeline.Generate(taskCtx, t.cfg, c.backends, req, c.rep)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		t.finish(result, nil, StatusCompleted)
		c.recordSuccess(elapsed)
	case errors.IsCancelled(err):
		t.finish(nil, err, StatusCancelled)
	default:
		t.finish(nil, err, StatusFailed)
		c.recordFailure()
		c.rep.Error(reporter.ReporterError{
			Title:      "Generation Error",
			Message:    fmt.Sprintf("Could not generate mosaic for %s: %v", util.GetFilename(t.InputPath()), err),
			Context:    fmt.Sprintf("File: %s", t.InputPath()),
			Suggestion: "Check that the file is a readable video",
		})
	}

	c.notifyFinish(t)
}

// summarize emits the end-of-run report: a warning when nothing was
// generated, a completion line for a single mosaic, a batch summary
// otherwise.
func (c *Coordinator) summarize(outcomes []Outcome) {
	var succeeded []Outcome
	failedCount := 0
	for _, o := range outcomes {
		switch {
		case o.Err == nil && o.Result != nil:
			succeeded = append(succeeded, o)
		case o.Err != nil && !errors.IsCancelled(o.Err):
			failedCount++
		}
	}

	switch len(succeeded) {
	case 0:
		c.rep.Warning("No mosaics were generated")
	case 1:
		c.rep.OperationComplete(fmt.Sprintf("Generated %s", util.GetFilename(succeeded[0].Result.OutputPath)))
	default:
		var totalSize uint64
		var totalDuration time.Duration
		var fileResults []reporter.FileResult
		validationPassed := 0

		for _, o := range succeeded {
			totalSize += o.Result.OutputSize
			totalDuration += o.Result.Elapsed
			fileResults = append(fileResults, reporter.FileResult{
				Filename:   util.GetFilename(o.InputPath),
				OutputSize: o.Result.OutputSize,
				FrameCount: o.Result.FrameCount,
			})
			if o.Result.ValidationPassed {
				validationPassed++
			}
		}

		c.rep.BatchComplete(reporter.BatchSummary{
			SuccessfulCount:       len(succeeded),
			FailedCount:           failedCount,
			TotalFiles:            len(outcomes),
			TotalOutputSize:       totalSize,
			TotalDuration:         totalDuration,
			FileResults:           fileResults,
			ValidationPassedCount: validationPassed,
			ValidationFailedCount: len(succeeded) - validationPassed,
		})
	}
}

func (c *Coordinator) recordSuccess(elapsed time.Duration) {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.generations++
	c.lastDuration = elapsed
	c.totalDuration += elapsed
}

func (c *Coordinator) recordFailure() {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.failures++
}

// Metrics returns counters for completed work.
func (c *Coordinator) Metrics() Metrics {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()

	m := Metrics{
		Generations:  c.generations,
		Failures:     c.failures,
		LastDuration: c.lastDuration,
	}
	if c.generations > 0 {
		m.AverageDuration = c.totalDuration / time.Duration(c.generations)
	}
	return m
}
