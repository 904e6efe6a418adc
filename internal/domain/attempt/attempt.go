// Package attempt owns the lifecycle of a single analysis attempt: its
// state machine, progress reporting and cancellation, plus the supervisor
// that keeps at most one attempt active per capture session.
package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// progressBuffer bounds the progress channel; reporting never blocks the
// pipeline, a slow listener just misses intermediate ticks.
const progressBuffer = 16

// Progress is one asynchronous progress message. Percent is monotonically
// non-decreasing over the life of an attempt.
type Progress struct {
	Percent int
	Status  string
}

// Result bundles everything a completed attempt produced. PersistError is
// set when scoring succeeded but the record could not be saved; the result
// stays ephemerally viewable and the save may be retried without
// re-running analysis.
type Result struct {
	Metrics      model.MetricsResult
	Score        model.ScoreResult
	Cards        []model.CoachingCard
	Record       model.AnalysisRecord
	PersistError error
}

// Attempt is the cancellable task handle for one analysis. The caller owns
// cancellation; the pipeline reports through the handle and never touches
// any UI lifecycle.
type Attempt struct {
	ID        string
	SessionID string
	AthleteID string
	VideoRef  string
	FPS       float64
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	state   model.State
	percent int
	status  string
	reasons []string
	result  *Result
	err     error
	closed  bool

	progress chan Progress
	done     chan struct{}
	doneOnce sync.Once
}

func newAttempt(ctx context.Context, sessionID, athleteID, videoRef string, fps float64) *Attempt {
	actx, cancel := context.WithCancel(ctx)
	return &Attempt{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		AthleteID: athleteID,
		VideoRef:  videoRef,
		FPS:       fps,
		StartedAt: time.Now(),
		ctx:       actx,
		cancel:    cancel,
		state:     model.StateIdle,
		progress:  make(chan Progress, progressBuffer),
		done:      make(chan struct{}),
	}
}

// Context is cancelled when the attempt is cancelled or superseded.
func (a *Attempt) Context() context.Context { return a.ctx }

// Cancel stops in-flight processing. Partial results are discarded, never
// surfaced.
func (a *Attempt) Cancel() { a.cancel() }

// Cancelled reports whether the attempt was cancelled or superseded.
func (a *Attempt) Cancelled() bool { return a.ctx.Err() != nil }

// Done is closed once the attempt reaches a terminal state.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Progress exposes the asynchronous progress stream.
func (a *Attempt) Progress() <-chan Progress { return a.progress }

// State returns the current attempt state.
func (a *Attempt) State() model.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Transition moves the attempt forward through the state machine.
func (a *Attempt) Transition(next model.State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, err := a.state.Transition(next)
	if err != nil {
		return err
	}
	a.state = state
	return nil
}

// ReportProgress publishes a progress update. Percent is clamped so the
// reported sequence never decreases; sends never block. Updates after the
// attempt closed are dropped.
func (a *Attempt) ReportProgress(percent int, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if percent < a.percent {
		percent = a.percent
	}
	if percent > 100 {
		percent = 100
	}
	a.percent = percent
	a.status = status

	select {
	case a.progress <- Progress{Percent: percent, Status: status}:
	default:
	}
}

// Complete records the finished result and closes the attempt.
func (a *Attempt) Complete(res Result) {
	a.mu.Lock()
	a.result = &res
	a.mu.Unlock()
	a.ReportProgress(100, "complete")
	a.close()
}

// Retake records the quality-gate outcome and closes the attempt. This is a
// first-class result, not a failure.
func (a *Attempt) Retake(reasons []string) {
	a.mu.Lock()
	a.reasons = append([]string(nil), reasons...)
	a.mu.Unlock()
	a.close()
}

// Fail records a hard failure and closes the attempt.
func (a *Attempt) Fail(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
	a.close()
}

// Discard finalizes a cancelled or superseded attempt. The handle reaches
// its terminal close without ever publishing a result; listeners on Done
// and Progress are released.
func (a *Attempt) Discard() { a.close() }

func (a *Attempt) close() {
	a.doneOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.done)
		close(a.progress)
	})
}

// Snapshot is a read-only view of the attempt for API consumers.
type Snapshot struct {
	ID          string
	SessionID   string
	AthleteID   string
	VideoRef    string
	State       model.State
	Percent     int
	Status      string
	NeedsRetake bool
	Reasons     []string
	Result      *Result
	Err         error
	Cancelled   bool
}

// Snapshot captures the attempt's current externally visible state.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		ID:          a.ID,
		SessionID:   a.SessionID,
		AthleteID:   a.AthleteID,
		VideoRef:    a.VideoRef,
		State:       a.state,
		Percent:     a.percent,
		Status:      a.status,
		NeedsRetake: a.state == model.StateNeedsRetake,
		Reasons:     append([]string(nil), a.reasons...),
		Result:      a.result,
		Err:         a.err,
		Cancelled:   a.ctx.Err() != nil,
	}
}
