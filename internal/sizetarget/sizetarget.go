// Package sizetarget searches for the highest encoding quality whose
// exported image fits within a byte budget.
//
// The search keeps a probe history: the first rounds bisect the quality
// bounds, later rounds interpolate the budget against the observed size
// curve. Output size grows monotonically with quality for the lossy
// encoders, so the probe pair bracketing the budget pins the answer in a
// handful of attempts.
package sizetarget

import (
	"math"
	"sort"
)

const (
	// MinQuality is the hard floor for the search.
	MinQuality = 0.05

	// MaxRounds caps the number of attempts, the seed included.
	MaxRounds = 6

	// tolerance accepts any fit within this fraction under the budget.
	tolerance = 0.10

	// step is the quality quantum; bounds move by one step past each probe.
	step = 0.01
)

// Probe records one encoding attempt.
type Probe struct {
	Quality float64
	Bytes   int64
}

// State tracks an iterative quality search against a byte budget.
type State struct {
	// Budget is the size cap in bytes.
	Budget int64

	// Probes holds every completed attempt, in attempt order.
	Probes []Probe

	// SearchMin and SearchMax bound the remaining quality range.
	SearchMin float64
	SearchMax float64

	// Round counts completed attempts, the seed included.
	Round int

	best         Probe
	haveBest     bool
	smallest     Probe
	haveSmallest bool
}

// NewState starts a search over [MinQuality, maxQuality]. The caller seeds
// it by recording the attempt that came in over budget.
func NewState(budget int64, maxQuality float64) *State {
	return &State{
		Budget:    budget,
		Probes:    make([]Probe, 0, MaxRounds+1),
		SearchMin: MinQuality,
		SearchMax: roundQuality(maxQuality),
	}
}

// Record stores one attempt and narrows the bounds around it.
func (s *State) Record(quality float64, bytes int64) {
	s.Round++
	p := Probe{Quality: roundQuality(quality), Bytes: bytes}
	s.Probes = append(s.Probes, p)

	if !s.haveSmallest || bytes < s.smallest.Bytes {
		s.smallest, s.haveSmallest = p, true
	}

	if bytes <= s.Budget {
		if !s.haveBest || p.Quality > s.best.Quality {
			s.best, s.haveBest = p, true
		}
		s.SearchMin = roundQuality(p.Quality + step)
	} else {
		s.SearchMax = roundQuality(p.Quality - step)
	}
}

// Done reports whether the search should stop: a fit within the tolerance
// band, exhausted rounds, or crossed bounds.
func (s *State) Done() bool {
	if s.haveBest && float64(s.Budget-s.best.Bytes) <= float64(s.Budget)*tolerance {
		return true
	}
	if s.Round > MaxRounds {
		return true
	}
	return s.SearchMin > s.SearchMax
}

// Next picks the quality for the next attempt. Early rounds bisect the
// bounds; once probes bracket the budget, the size curve is interpolated
// at the budget instead.
func (s *State) Next() float64 {
	var q float64
	switch {
	case s.Round < 3:
		q = bisect(s.SearchMin, s.SearchMax)
	default:
		if interp := s.interpolate(); interp != nil {
			q = *interp
		} else {
			q = bisect(s.SearchMin, s.SearchMax)
		}
	}
	return clamp(roundQuality(q), s.SearchMin, s.SearchMax)
}

// Probed reports whether quality was already attempted. Drivers stop
// rather than encode the same value twice.
func (s *State) Probed(quality float64) bool {
	q := roundQuality(quality)
	for _, p := range s.Probes {
		if p.Quality == q {
			return true
		}
	}
	return false
}

// Best returns the highest-quality attempt that fit the budget.
func (s *State) Best() (Probe, bool) {
	return s.best, s.haveBest
}

// Smallest returns the smallest attempt seen, fit or not. It is the
// fallback when nothing fits.
func (s *State) Smallest() (Probe, bool) {
	return s.smallest, s.haveSmallest
}

// interpolate maps the budget through the probe pair bracketing it.
// Returns nil while no pair brackets the budget.
func (s *State) interpolate() *float64 {
	sorted := make([]Probe, len(s.Probes))
	copy(sorted, s.Probes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bytes < sorted[j].Bytes })

	for i := 0; i+1 < len(sorted); i++ {
		lo, hi := sorted[i], sorted[i+1]
		if lo.Bytes <= s.Budget && s.Budget < hi.Bytes {
			return Lerp(
				[2]float64{float64(lo.Bytes), float64(hi.Bytes)},
				[2]float64{lo.Quality, hi.Quality},
				float64(s.Budget),
			)
		}
	}
	return nil
}

// Lerp linearly maps xi from the x interval onto the y interval. Returns
// nil when the x interval is degenerate.
func Lerp(x, y [2]float64, xi float64) *float64 {
	if x[1] <= x[0] {
		return nil
	}
	t := (xi - x[0]) / (x[1] - x[0])
	result := t*(y[1]-y[0]) + y[0]
	return &result
}

func bisect(min, max float64) float64 {
	return roundQuality((min + max) / 2)
}

func roundQuality(q float64) float64 {
	return math.Round(q*100) / 100
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
