// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jcortez/swinglab/internal/adapters/archive"
	"github.com/jcortez/swinglab/internal/adapters/drills"
	"github.com/jcortez/swinglab/internal/adapters/encourage"
	"github.com/jcortez/swinglab/internal/adapters/http/api"
	jobqueue "github.com/jcortez/swinglab/internal/adapters/mq/queue"
	workerpool "github.com/jcortez/swinglab/internal/adapters/mq/worker"
	"github.com/jcortez/swinglab/internal/adapters/repository"
	"github.com/jcortez/swinglab/internal/config"
	"github.com/jcortez/swinglab/internal/domain/attempt"
	"github.com/jcortez/swinglab/internal/domain/coaching"
	"github.com/jcortez/swinglab/internal/domain/pose"
	"github.com/jcortez/swinglab/internal/domain/scoring"
	"github.com/jcortez/swinglab/internal/domain/segment"
	"github.com/jcortez/swinglab/pkg/logger"
	"github.com/jcortez/swinglab/pkg/metrics"
)

// Service implements the API dependencies for the swing analysis system.
type Service struct {
	mu sync.RWMutex

	// Core components
	supervisor *attempt.Supervisor
	board      repository.Store
	jobQueue   jobqueue.Queue
	engine     *scoring.Engine
	segmenter  *segment.Segmenter
	selector   *coaching.Selector
	archiver   *archive.DB
	catalog    coaching.Catalog
	detector   pose.Detector
	encourager encourage.Encourager
	workerPool *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	attemptRetention int
	cardCount        int
	confidenceFloor  float64
	defaultFPS       float64
	specs            map[string]scoring.Spec
	archivePath      string
	drillsPath       string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithAttemptRetention caps how many finished attempts stay retrievable.
func WithAttemptRetention(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attemptRetention = n
		}
	}
}

// WithCardCount sets how many coaching cards an attempt produces.
func WithCardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cardCount = n
		}
	}
}

// WithConfidenceFloor sets the retake gate's tracking confidence floor.
func WithConfidenceFloor(floor float64) Option {
	return func(s *Service) {
		if floor > 0 && floor < 1 {
			s.confidenceFloor = floor
		}
	}
}

// WithDefaultFPS applies when a submission does not carry a frame rate.
func WithDefaultFPS(fps float64) Option {
	return func(s *Service) {
		if fps > 0 {
			s.defaultFPS = fps
		}
	}
}

// WithMetricSpecs sets the scoring specs keyed by metric name.
func WithMetricSpecs(specs map[string]scoring.Spec) Option {
	return func(s *Service) {
		if len(specs) > 0 {
			s.specs = specs
		}
	}
}

// WithArchivePath sets the sqlite file for finished analysis records.
// Empty disables archiving.
func WithArchivePath(path string) Option {
	return func(s *Service) {
		s.archivePath = path
	}
}

// WithDrillsPath sets the sqlite drill catalog path. Empty uses the seeded
// in-memory catalog.
func WithDrillsPath(path string) Option {
	return func(s *Service) {
		s.drillsPath = path
	}
}

// WithDetector sets the pose detector used when a submission has no frames.
func WithDetector(d pose.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithEncourager sets the optional encouragement collaborator.
func WithEncourager(e encourage.Encourager) Option {
	return func(s *Service) {
		if e != nil {
			s.encourager = e
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        1024,
		attemptRetention: 10_000,
		cardCount:        coaching.DefaultCardCount,
		confidenceFloor:  0.45,
		defaultFPS:       30,
		specs:            nil, // Falls back to the built-in spec set
		encourager:       encourage.Noop{},
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting swing analysis service...")

	if s.specs == nil {
		s.specs = config.DefaultMetricSpecs()
	}
	engine, err := scoring.NewEngine(s.specs)
	if err != nil {
		return fmt.Errorf("build scoring engine: %w", err)
	}
	s.engine = engine

	s.supervisor = attempt.NewSupervisor(attempt.WithRetention(s.attemptRetention))
	s.board = repository.NewMemStore()
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.segmenter = segment.New(segment.WithConfidenceFloor(s.confidenceFloor))

	if s.drillsPath != "" {
		catalog, err := drills.OpenSQL(s.drillsPath)
		if err != nil {
			return fmt.Errorf("open drill catalog: %w", err)
		}
		s.catalog = catalog
		s.logger.Info(ctx, "using sqlite drill catalog", logger.String("path", s.drillsPath))
	} else {
		s.catalog = drills.NewMemCatalog()
		s.logger.Info(ctx, "using seeded drill catalog")
	}
	s.selector = coaching.NewSelector(s.catalog, coaching.WithCardCount(s.cardCount))

	if s.archivePath != "" {
		db, err := archive.Open(s.archivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		s.archiver = db
	}

	if s.detector != nil {
		if err := s.detector.Init(ctx); err != nil {
			return fmt.Errorf("init pose detector: %w", err)
		}
	}

	deps := workerpool.Deps{
		Detector:  s.detector,
		Segmenter: s.segmenter,
		Scorer:    s.engine,
		Selector:  s.selector,
		Store:     s.board,
		Archiver:  s.workerArchiver(),
		Tracker:   s.supervisor,
	}
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, deps)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "swing analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("cardCount", s.cardCount),
	)

	return nil
}

// workerArchiver keeps the worker's nil check meaningful; a typed nil *DB
// inside the interface would defeat it.
func (s *Service) workerArchiver() workerpool.Archiver {
	if s.archiver == nil {
		return nil
	}
	return s.archiver
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping swing analysis service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}
	if s.archiver != nil {
		_ = s.archiver.Close()
	}
	if closer, ok := s.catalog.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if s.detector != nil {
		_ = s.detector.Close()
	}

	s.started = false
	s.logger.Info(ctx, "swing analysis service stopped")
}

// Submit starts an analysis attempt for the session. A new submission for a
// session that already has a live attempt supersedes it; the old attempt is
// cancelled and its partial results are discarded. Returns ok=false on
// queue backpressure.
func (s *Service) Submit(ctx context.Context, sub api.Submission) (api.Receipt, bool) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return api.Receipt{}, false
	}

	fps := sub.FPS
	if fps <= 0 {
		fps = s.defaultFPS
	}

	prev, _ := s.supervisor.Current(sub.SessionID)
	a := s.supervisor.Begin(ctx, sub.SessionID, sub.AthleteID, sub.VideoRef, fps)

	job := jobqueue.Job{Attempt: a, Frames: sub.Frames}
	if ok := s.jobQueue.Enqueue(ctx, job); !ok {
		// Roll back so the session is not left with a queued-but-dead attempt.
		a.Cancel()
		a.Discard()
		s.supervisor.Finish(a)
		s.logger.Warn(ctx, "submission rejected on backpressure",
			logger.String("session_id", sub.SessionID))
		return api.Receipt{}, false
	}

	metrics.RecordAttemptSubmitted()
	receipt := api.Receipt{AttemptID: a.ID}
	if prev != nil {
		receipt.Superseded = prev.ID
		s.logger.Info(ctx, "superseded prior attempt",
			logger.String("session_id", sub.SessionID),
			logger.String("old_attempt_id", prev.ID),
			logger.String("new_attempt_id", a.ID),
		)
	}
	return receipt, true
}

// Attempt returns the live view of an attempt by id.
func (s *Service) Attempt(ctx context.Context, id string) (attempt.Snapshot, error) {
	a, ok := s.supervisor.Get(id)
	if !ok {
		return attempt.Snapshot{}, api.ErrNotFound
	}
	return a.Snapshot(), nil
}

// Cancel stops an in-flight attempt. Cancelling a finished attempt is a
// no-op.
func (s *Service) Cancel(ctx context.Context, id string) error {
	a, ok := s.supervisor.Get(id)
	if !ok {
		return api.ErrNotFound
	}
	a.Cancel()
	return nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]api.Entry, error) {
	entries, err := s.board.TopN(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	return entries, nil
}

// Rank returns the rank and best score for a given athlete id.
func (s *Service) Rank(ctx context.Context, athleteID string) (api.Entry, error) {
	entry, err := s.board.Rank(ctx, athleteID)
	if err != nil {
		return api.Entry{}, err
	}
	return entry, nil
}

// Percentile reports the share of ranked athletes at or below the athlete's
// best score.
func (s *Service) Percentile(ctx context.Context, athleteID string) (float64, error) {
	return s.board.Percentile(ctx, athleteID)
}

// Encourage produces a short encouragement line for a completed attempt.
func (s *Service) Encourage(ctx context.Context, attemptID string) (string, error) {
	a, ok := s.supervisor.Get(attemptID)
	if !ok {
		return "", api.ErrNotFound
	}
	snap := a.Snapshot()
	if snap.Result == nil {
		return "", fmt.Errorf("attempt %s has no score yet", attemptID)
	}
	pct, err := s.board.Percentile(ctx, snap.AthleteID)
	if err != nil {
		pct = 0
	}
	summary := encourage.BuildSummary(snap.AthleteID, snap.Result.Score, pct)
	return s.encourager.Encourage(ctx, summary)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"cardCount":   s.cardCount,
	}

	if s.started {
		queueLen := s.jobQueue.Len()
		rankedAthletes := s.board.Count(ctx)

		stats["queueLength"] = queueLen
		stats["attempts"] = s.supervisor.Size()
		stats["rankedAthletes"] = rankedAthletes

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateAthletesRanked(rankedAthletes)
		metrics.UpdateWorkerActiveCount(s.workerCount)
	}

	return stats
}
