// Package coaching turns the weakest metrics into coaching cards: a
// canonical cue plus a drill resolved through the catalog collaborator.
package coaching

import (
	"context"

	"github.com/jcortez/swinglab/internal/domain/measure"
	"github.com/jcortez/swinglab/internal/domain/model"
)

// DefaultCardCount caps how many cards one attempt produces.
const DefaultCardCount = 3

// Catalog resolves a drill for a metric name. A missing drill is reported
// with ok=false, not an error; lookup errors come from the backing store.
type Catalog interface {
	Lookup(ctx context.Context, metric string) (model.Drill, bool, error)
}

// cues maps each metric to its canonical coaching cue.
var cues = map[string]string{
	measure.MetricHeadDrift:             "Keep your head still through the swing — see the ball longer.",
	measure.MetricAttackAngle:           "Match your bat path to the pitch plane; swing slightly up through contact.",
	measure.MetricHipShoulderSeparation: "Fire your hips first and let your shoulders lag to build separation.",
	measure.MetricBatLag:                "Keep your hands inside the ball and let the barrel lag behind your hands.",
	measure.MetricBatSpeed:              "Turn faster, not harder — sequence legs, hips, then hands.",
	measure.MetricPelvisTilt:            "Stay in your legs; keep your belt line level as you rotate.",
	measure.MetricSwingPlane:            "Flatten your swing plane — work the barrel through the hitting zone.",
	measure.MetricArmExtension:          "Drive through the ball and finish with full extension.",
	measure.MetricTimeToContact:         "Shorten your load — be quicker from launch to contact.",
	measure.MetricLaunchAngle:           "Finish through the ball on a line-drive trajectory.",
	measure.MetricShoulderAngle:         "Keep your back shoulder from dipping early.",
}

// fallbackCue covers metrics added ahead of their cue text.
const fallbackCue = "Focus on this part of your swing with your coach."

// Cue returns the canonical cue for a metric.
func Cue(metric string) string {
	if cue, ok := cues[metric]; ok {
		return cue
	}
	return fallbackCue
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithCardCount sets how many cards Select produces.
func WithCardCount(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.cardCount = n
		}
	}
}

// Selector builds coaching cards from the weakest-metric ranking.
type Selector struct {
	catalog   Catalog
	cardCount int
}

// NewSelector creates a Selector over the drill catalog.
func NewSelector(catalog Catalog, opts ...Option) *Selector {
	s := &Selector{
		catalog:   catalog,
		cardCount: DefaultCardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select produces ordered coaching cards for the weakest metrics, primary
// card first. A metric without a catalog drill still gets its card with a
// nil drill; catalog errors degrade the same way. Select never fails.
func (s *Selector) Select(ctx context.Context, weakest []string) []model.CoachingCard {
	n := len(weakest)
	if n > s.cardCount {
		n = s.cardCount
	}
	cards := make([]model.CoachingCard, 0, n)
	for _, metric := range weakest[:n] {
		card := model.CoachingCard{Metric: metric, Cue: Cue(metric)}
		if s.catalog != nil {
			if drill, ok, err := s.catalog.Lookup(ctx, metric); err == nil && ok {
				d := drill
				card.Drill = &d
			}
		}
		cards = append(cards, card)
	}
	return cards
}
