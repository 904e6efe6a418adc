package pose

import (
	"context"
	"fmt"
	"sync"
)

// Detector is the handle on the external pose model. The caller owns the
// lifecycle: Init before the first Detect, Close when the attempt owner is
// done with it. Implementations must be safe for use from the analysis
// worker goroutine.
type Detector interface {
	// Init prepares model resources.
	Init(ctx context.Context) error

	// Detect runs the model over the sampled frames of a video reference
	// and returns the raw per-frame output. Implementations should honor
	// ctx cancellation between frames.
	Detect(ctx context.Context, videoRef string) ([]RawFrame, error)

	// Close releases model resources. Detect after Close returns
	// ErrDetectorClosed.
	Close() error
}

// StaticDetector replays raw frames supplied up front, for callers that run
// the external model elsewhere (for example a client-side detector posting
// its frames with the analysis request) and for tests.
type StaticDetector struct {
	mu     sync.Mutex
	frames []RawFrame
	closed bool
}

// NewStaticDetector wraps already-produced raw detector frames.
func NewStaticDetector(frames []RawFrame) *StaticDetector {
	return &StaticDetector{frames: frames}
}

// Init implements Detector; a static detector has nothing to prepare.
func (d *StaticDetector) Init(_ context.Context) error { return nil }

// Detect returns the wrapped frames. The video reference is ignored; the
// frames were produced from it upstream.
func (d *StaticDetector) Detect(ctx context.Context, _ string) ([]RawFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("detect: %w", ErrDetectorClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	out := make([]RawFrame, len(d.frames))
	copy(out, d.frames)
	return out, nil
}

// Close implements Detector.
func (d *StaticDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
