// Package worker runs queued analysis attempts through the pipeline:
// detect, segment, measure, score, build cards, persist.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/jcortez/swinglab/internal/adapters/mq/queue"
	"github.com/jcortez/swinglab/internal/domain/attempt"
	"github.com/jcortez/swinglab/internal/domain/measure"
	"github.com/jcortez/swinglab/internal/domain/model"
	"github.com/jcortez/swinglab/internal/domain/pose"
	"github.com/jcortez/swinglab/internal/domain/segment"
	"github.com/jcortez/swinglab/pkg/logger"
	"github.com/jcortez/swinglab/pkg/metrics"
)

// Worker timing constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Segmenter locates swing events and applies the retake gate.
type Segmenter interface {
	Segment(frames []model.FrameKeypoints, fps float64) segment.Outcome
}

// Scorer computes the score result from measured metrics.
type Scorer interface {
	Score(metrics map[string]model.Measurement) model.ScoreResult
}

// CardSelector builds coaching cards from the weakest-metric ranking.
type CardSelector interface {
	Select(ctx context.Context, weakest []string) []model.CoachingCard
}

// ScoreStore records an athlete's best overall score for ranking.
type ScoreStore interface {
	UpdateBest(ctx context.Context, athleteID string, score float64) (bool, error)
}

// Archiver persists the finished analysis record.
type Archiver interface {
	Save(ctx context.Context, record model.AnalysisRecord) error
}

// Tracker decides whether an attempt may still publish its results.
type Tracker interface {
	IsCurrent(a *attempt.Attempt) bool
	Finish(a *attempt.Attempt)
}

// Deps bundles the pipeline collaborators a worker needs.
type Deps struct {
	Detector  pose.Detector
	Segmenter Segmenter
	Scorer    Scorer
	Selector  CardSelector
	Store     ScoreStore
	Archiver  Archiver
	Tracker   Tracker
}

// Worker processes analysis jobs until stopped.
type Worker struct {
	queue queue.Queue
	deps  Deps
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q queue.Queue, deps Deps, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		deps:     deps,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run consumes jobs until ctx is cancelled or the worker shuts down.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process drives one attempt through the pipeline state machine. Every
// stage boundary re-checks cancellation so a superseded attempt stops
// promptly and its partial results are discarded, never published.
func (w *Worker) process(ctx context.Context, job queue.Job) {
	a := job.Attempt
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.deps.Tracker.Finish(a)
	}()

	actx := a.Context()
	if w.discarded(actx, a) {
		return
	}

	// Detecting
	if err := a.Transition(model.StateDetecting); err != nil {
		w.fail(actx, a, err)
		return
	}
	a.ReportProgress(5, "detecting pose")

	raw := job.Frames
	if raw == nil {
		detectStart := time.Now()
		frames, err := w.deps.Detector.Detect(actx, a.VideoRef)
		metrics.RecordStageLatency("detect", float64(time.Since(detectStart).Milliseconds()))
		if err != nil {
			if w.discarded(actx, a) {
				return
			}
			metrics.RecordPoseFailure()
			w.fail(actx, a, fmt.Errorf("%w: %v", pose.ErrPoseDetection, err))
			return
		}
		raw = frames
	}
	frames := pose.Normalize(raw)
	if w.discarded(actx, a) {
		return
	}

	// Segmenting
	a.ReportProgress(25, "segmenting swing phases")
	segStart := time.Now()
	outcome := w.deps.Segmenter.Segment(frames, a.FPS)
	metrics.RecordStageLatency("segment", float64(time.Since(segStart).Milliseconds()))
	if w.discarded(actx, a) {
		return
	}

	if outcome.NeedsRetake {
		if err := a.Transition(model.StateNeedsRetake); err != nil {
			w.fail(actx, a, err)
			return
		}
		metrics.RecordNeedsRetake()
		w.logger.Info(actx, "attempt gated for retake",
			logger.String("attempt_id", a.ID),
			logger.Any("reasons", outcome.Reasons),
		)
		a.Retake(outcome.Reasons)
		return
	}
	if err := a.Transition(model.StateSegmented); err != nil {
		w.fail(actx, a, err)
		return
	}

	// Measuring
	a.ReportProgress(45, "measuring swing metrics")
	measureStart := time.Now()
	measured := measure.Compute(frames, outcome.Events, a.FPS)
	metrics.RecordStageLatency("measure", float64(time.Since(measureStart).Milliseconds()))
	if w.discarded(actx, a) {
		return
	}

	// Scoring
	if err := a.Transition(model.StateScoring); err != nil {
		w.fail(actx, a, err)
		return
	}
	a.ReportProgress(65, "scoring swing")
	scoreStart := time.Now()
	score := w.deps.Scorer.Score(measured.Metrics)
	metrics.RecordStageLatency("score", float64(time.Since(scoreStart).Milliseconds()))

	// Cards
	if err := a.Transition(model.StateCardsBuilt); err != nil {
		w.fail(actx, a, err)
		return
	}
	a.ReportProgress(80, "building coaching cards")
	cards := w.deps.Selector.Select(actx, score.Weakest)
	if w.discarded(actx, a) {
		return
	}

	record := buildRecord(a, measured, score, cards)
	result := attempt.Result{
		Metrics: measured,
		Score:   score,
		Cards:   cards,
		Record:  record,
	}

	// A superseded attempt's completion is ignored once a newer attempt
	// owns the session.
	if !w.deps.Tracker.IsCurrent(a) {
		metrics.RecordAttemptCancelled()
		a.Discard()
		return
	}

	result.PersistError = w.persist(actx, a, record, score)

	if err := a.Transition(model.StateComplete); err != nil {
		w.fail(actx, a, err)
		return
	}
	metrics.RecordAttemptCompleted()
	metrics.RecordOverallScore(float64(score.Overall))
	a.Complete(result)
}

// persist writes the record and updates the ranking store. Failures here
// never invalidate the scored result; they are surfaced on the attempt so
// the caller may retry saving without re-running analysis.
func (w *Worker) persist(ctx context.Context, a *attempt.Attempt, record model.AnalysisRecord, score model.ScoreResult) error {
	if !score.InsufficientData && w.deps.Store != nil {
		if _, err := w.deps.Store.UpdateBest(ctx, a.AthleteID, float64(score.Overall)); err != nil {
			w.logger.Error(ctx, "score store update failed",
				logger.String("attempt_id", a.ID), logger.Error(err))
		}
	}
	if w.deps.Archiver == nil {
		return nil
	}
	if err := w.deps.Archiver.Save(ctx, record); err != nil {
		metrics.RecordArchiveError()
		w.logger.Error(ctx, "archive save failed",
			logger.String("attempt_id", a.ID), logger.Error(err))
		return err
	}
	metrics.RecordArchiveWrite()
	return nil
}

func (w *Worker) discarded(ctx context.Context, a *attempt.Attempt) bool {
	if ctx.Err() == nil && !a.Cancelled() {
		return false
	}
	metrics.RecordAttemptCancelled()
	w.logger.Info(context.Background(), "attempt cancelled; partial results discarded",
		logger.String("attempt_id", a.ID))
	a.Discard()
	return true
}

func (w *Worker) fail(ctx context.Context, a *attempt.Attempt, err error) {
	_ = a.Transition(model.StateError)
	metrics.RecordAttemptError()
	metrics.RecordWorkerError()
	w.logger.Error(ctx, "attempt failed",
		logger.String("attempt_id", a.ID), logger.Error(err))
	a.Fail(err)
}

func buildRecord(a *attempt.Attempt, measured model.MetricsResult, score model.ScoreResult, cards []model.CoachingCard) model.AnalysisRecord {
	raw := make(map[string]float64)
	for name, m := range measured.Metrics {
		if m.Present {
			raw[name] = m.Value
		}
	}
	return model.AnalysisRecord{
		AttemptID:  a.ID,
		SessionID:  a.SessionID,
		AthleteID:  a.AthleteID,
		VideoRef:   a.VideoRef,
		Score:      score,
		RawMetrics: raw,
		Cards:      cards,
		CreatedAt:  a.StartedAt,
	}
}

// Pool manages a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	queue   queue.Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count defaults to the
// number of CPUs.
func NewPool(workerCount int, q queue.Queue, deps Deps) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, deps, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
