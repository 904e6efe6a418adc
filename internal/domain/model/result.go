package model

import "time"

// Measurement is one metric's computed value. Present is false when a frame
// or keypoint required by the metric's formula was missing or under the
// confidence threshold; absent values are never zero-filled.
type Measurement struct {
	Value   float64
	Present bool
}

// QualityFlags carries stream-quality observations made while measuring.
type QualityFlags struct {
	LowConfidence bool
	MissingEvents []Event
}

// MetricsResult is the Metric Computer's output for one attempt.
type MetricsResult struct {
	Metrics map[string]Measurement
	Quality QualityFlags
}

// ScoreResult is the Scoring Engine's output for one attempt.
type ScoreResult struct {
	// Overall is the weighted aggregate score in [0,100].
	Overall int
	// Label buckets the overall score for display.
	Label string
	// PerMetric maps metric name to normalized quality in [0,1] for every
	// metric that was present.
	PerMetric map[string]float64
	// Weakest orders present metrics from lowest to highest quality.
	Weakest []string
	// InsufficientData is set when no metric was present; Overall is 0 and
	// must not be read as an earned score.
	InsufficientData bool
}

// Drill describes a practice drill resolved from the drill catalog.
type Drill struct {
	Key          string
	Name         string
	Instructions string
	Equipment    string
}

// CoachingCard pairs a canonical cue with a drill for one weak metric.
// Drill is nil when the catalog had no entry for the metric; the card is
// still produced with its cue.
type CoachingCard struct {
	Metric string
	Cue    string
	Drill  *Drill
}

// RetakeAdvice is the first-class quality-gate outcome: the attempt cannot
// be scored and the athlete should record a new swing.
type RetakeAdvice struct {
	NeedsRetake bool
	Reasons     []string
}

// AnalysisRecord is the structured record emitted for persistence after an
// attempt completes. The pipeline never talks to storage directly.
type AnalysisRecord struct {
	AttemptID  string
	SessionID  string
	AthleteID  string
	VideoRef   string
	Score      ScoreResult
	RawMetrics map[string]float64
	Cards      []CoachingCard
	CreatedAt  time.Time
}
