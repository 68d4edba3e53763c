// Package resource probes host capacity for deriving concurrency limits.
package resource

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Probe reports host capacity. Implementations must be safe for concurrent use.
type Probe interface {
	// TotalMemoryBytes returns total physical memory, or 0 if unknown.
	TotalMemoryBytes(ctx context.Context) uint64
	// LogicalCores returns the logical CPU count (includes hyperthreads).
	LogicalCores() int
}

// SystemProbe reads live values from the host.
type SystemProbe struct{}

// NewSystemProbe creates a probe backed by host measurements.
func NewSystemProbe() SystemProbe {
	return SystemProbe{}
}

func (SystemProbe) TotalMemoryBytes(ctx context.Context) uint64 {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm == nil {
		return 0
	}
	return vm.Total
}

func (SystemProbe) LogicalCores() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		return runtime.NumCPU()
	}
	return count
}

// FixedProbe returns injected values. Used by tests that need deterministic limits.
type FixedProbe struct {
	MemoryBytes uint64
	Cores       int
}

func (p FixedProbe) TotalMemoryBytes(context.Context) uint64 { return p.MemoryBytes }

func (p FixedProbe) LogicalCores() int { return p.Cores }

const (
	// bytesPerTask is the memory budget assumed per concurrent generation.
	bytesPerTask = 4 << 30
	// minLimit is the floor for both derived limits.
	minLimit = 2
)

// MemoryLimit returns the memory-derived task limit: total memory divided by
// the per-task budget, never below the floor. Unknown memory yields the floor.
func MemoryLimit(totalBytes uint64) int {
	limit := int(totalBytes / bytesPerTask)
	return max(limit, minLimit)
}

// CPULimit returns the CPU-derived task limit: one core left free for the
// system, never below the floor.
func CPULimit(cores int) int {
	return max(cores-1, minLimit)
}

// EffectiveLimit combines memory, CPU and user limits into the number of
// generation tasks allowed to run concurrently. userLimit <= 0 means
// no user cap.
func EffectiveLimit(ctx context.Context, probe Probe, userLimit int) int {
	limit := MemoryLimit(probe.TotalMemoryBytes(ctx))
	if cpuLimit := CPULimit(probe.LogicalCores()); cpuLimit < limit {
		limit = cpuLimit
	}
	if userLimit > 0 && userLimit < limit {
		limit = userLimit
	}
	return limit
}

// HostInfo describes the host for reporting.
type HostInfo struct {
	Hostname    string
	NumCPU      int
	OS          string
	Arch        string
	TotalMemory uint64
}

// GetHostInfo collects host information for startup reporting.
func GetHostInfo(ctx context.Context, probe Probe) HostInfo {
	hostname, _ := os.Hostname()
	return HostInfo{
		Hostname:    hostname,
		NumCPU:      probe.LogicalCores(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		TotalMemory: probe.TotalMemoryBytes(ctx),
	}
}
