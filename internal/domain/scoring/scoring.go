// Package scoring maps measured metrics and their declarative specs to
// per-metric normalized qualities, a weighted overall score and a
// weakest-first ranking.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// Score bounds and labels.
const (
	maxScore       = 100
	labelExcellent = "Excellent"
	labelGood      = "Good"
	labelNeedsWork = "Needs Work"

	excellentFloor = 80
	goodFloor      = 60
)

// Sentinel kinds for spec validation.
var (
	ErrInvalidSpec = errors.New("invalid metric spec")
)

// Tolerance enumerates the supported tolerance shapes. Modeling the shape
// as a closed variant instead of free boolean flags makes every
// combination explicit.
type Tolerance int

const (
	// ToleranceBand: quality rises linearly across [min,max]; values outside
	// the window are penalized in the direction of the violation.
	ToleranceBand Tolerance = iota
	// ToleranceInverted: smaller is better. Quality is full at or below
	// min, falls linearly across the window, and keeps falling past max.
	ToleranceInverted
	// ToleranceCentered: quality peaks at the window midpoint and falls
	// with absolute distance from it, whichever the direction.
	ToleranceCentered
)

func (t Tolerance) valid() bool {
	switch t {
	case ToleranceBand, ToleranceInverted, ToleranceCentered:
		return true
	default:
		return false
	}
}

// Spec is the declarative scoring policy for one metric.
type Spec struct {
	Min    float64
	Max    float64
	Weight float64
	Shape  Tolerance
}

// Validate checks spec invariants.
func (s Spec) Validate() error {
	switch {
	case s.Min > s.Max:
		return fmt.Errorf("%w: min %.3f > max %.3f", ErrInvalidSpec, s.Min, s.Max)
	case s.Weight < 0:
		return fmt.Errorf("%w: negative weight %.3f", ErrInvalidSpec, s.Weight)
	case !s.Shape.valid():
		return fmt.Errorf("%w: unknown tolerance shape %d", ErrInvalidSpec, int(s.Shape))
	}
	return nil
}

// Normalize maps a present value to its quality in [0,1] under this spec.
// The floor is 0: overshooting the window by any margin never goes
// negative-unbounded.
func (s Spec) Normalize(v float64) float64 {
	width := s.Max - s.Min
	var raw float64
	switch s.Shape {
	case ToleranceInverted:
		if width == 0 {
			if v <= s.Max {
				return 1
			}
			return 0
		}
		raw = (s.Max - v) / width
	case ToleranceCentered:
		if width == 0 {
			if v == s.Min {
				return 1
			}
			return 0
		}
		mid := (s.Min + s.Max) / 2
		raw = 1 - math.Abs(v-mid)/(width/2)
	default: // ToleranceBand
		if width == 0 {
			if v == s.Min {
				return 1
			}
			return 0
		}
		if v > s.Max {
			// Overshoot is penalized from the max end, not clamped to it.
			raw = 1 - (v-s.Max)/width
		} else {
			raw = (v - s.Min) / width
		}
	}
	return clamp01(raw)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeakestLimit caps how many metrics the Weakest ranking reports.
// Zero means unlimited.
func WithWeakestLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.weakestLimit = n
		}
	}
}

// Engine scores metric maps against a fixed spec set.
type Engine struct {
	specs        map[string]Spec
	weakestLimit int
}

// NewEngine validates the spec set and builds an engine over it.
func NewEngine(specs map[string]Spec, opts ...Option) (*Engine, error) {
	copied := make(map[string]Spec, len(specs))
	for name, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("spec %q: %w", name, err)
		}
		copied[name] = spec
	}
	e := &Engine{specs: copied}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Score computes the weighted overall score and the weakest-first ranking.
// Absent metrics are excluded from both the numerator and denominator, so a
// present-but-absent entry scores identically to a missing key. When no
// metric is present the result is a defined fallback: overall 0 with
// InsufficientData set, never a division fault. The result depends only on
// the map's content, not its iteration order.
func (e *Engine) Score(metrics map[string]model.Measurement) model.ScoreResult {
	perMetric := make(map[string]float64)
	var weightedSum, totalWeight float64
	for name, m := range metrics {
		spec, ok := e.specs[name]
		if !ok || !m.Present {
			continue
		}
		q := spec.Normalize(m.Value)
		perMetric[name] = q
		weightedSum += spec.Weight * q
		totalWeight += spec.Weight
	}

	if totalWeight == 0 {
		return model.ScoreResult{
			Overall:          0,
			PerMetric:        perMetric,
			Weakest:          nil,
			InsufficientData: true,
		}
	}

	overall := int(math.Round(maxScore * weightedSum / totalWeight))
	if overall < 0 {
		overall = 0
	}
	if overall > maxScore {
		overall = maxScore
	}

	return model.ScoreResult{
		Overall:   overall,
		Label:     Label(overall),
		PerMetric: perMetric,
		Weakest:   e.rank(perMetric),
	}
}

// rank orders present metrics ascending by quality. Ties break by
// descending weight (the heavier metric matters more to coach first), then
// by ascending metric name; the order is fully deterministic.
func (e *Engine) rank(perMetric map[string]float64) []string {
	names := make([]string, 0, len(perMetric))
	for name := range perMetric {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		qi, qj := perMetric[names[i]], perMetric[names[j]]
		if qi != qj {
			return qi < qj
		}
		wi, wj := e.specs[names[i]].Weight, e.specs[names[j]].Weight
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})
	if e.weakestLimit > 0 && len(names) > e.weakestLimit {
		names = names[:e.weakestLimit]
	}
	return names
}

// Label buckets an overall score for display.
func Label(overall int) string {
	switch {
	case overall >= excellentFloor:
		return labelExcellent
	case overall >= goodFloor:
		return labelGood
	default:
		return labelNeedsWork
	}
}
