// Package segment locates named swing events in a normalized keypoint
// stream and applies the retake quality gate.
package segment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// Default segmentation constants.
const (
	defaultTrackThreshold  = 0.3  // keypoints under this confidence are untracked
	defaultConfidenceFloor = 0.45 // mean stream confidence below this gates a retake
	defaultSmoothingWindow = 5
	defaultLaunchFraction  = 0.25 // swing initiation: speed first under this fraction of peak, looking back
	defaultFinishFraction  = 0.15 // plateau: speed stays under this fraction of peak
	defaultPlateauFrames   = 3
	minFrames              = 8
)

// Outcome is the segmenter's first-class result. NeedsRetake means the
// stream cannot be scored; it is not an error.
type Outcome struct {
	Events         model.SwingEvents
	MeanConfidence float64
	NeedsRetake    bool
	Reasons        []string
}

// Option applies a configuration option to the Segmenter.
type Option func(*Segmenter)

// WithConfidenceFloor sets the mean-confidence level of the retake gate.
func WithConfidenceFloor(floor float64) Option {
	return func(s *Segmenter) {
		if floor > 0 && floor < 1 {
			s.confidenceFloor = floor
		}
	}
}

// WithTrackThreshold sets the per-keypoint confidence threshold for
// trajectory tracking.
func WithTrackThreshold(threshold float64) Option {
	return func(s *Segmenter) {
		if threshold > 0 && threshold < 1 {
			s.trackThreshold = threshold
		}
	}
}

// WithSmoothingWindow sets the moving-average window over the speed series.
func WithSmoothingWindow(window int) Option {
	return func(s *Segmenter) {
		if window >= 1 {
			s.smoothingWindow = window
		}
	}
}

// Segmenter scans wrist trajectories for swing events.
type Segmenter struct {
	trackThreshold  float64
	confidenceFloor float64
	smoothingWindow int
	launchFraction  float64
	finishFraction  float64
	plateauFrames   int
}

// New creates a Segmenter with configuration options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		trackThreshold:  defaultTrackThreshold,
		confidenceFloor: defaultConfidenceFloor,
		smoothingWindow: defaultSmoothingWindow,
		launchFraction:  defaultLaunchFraction,
		finishFraction:  defaultFinishFraction,
		plateauFrames:   defaultPlateauFrames,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment locates swing events in the frame sequence. Undetectable events
// are simply absent from the result; the retake gate fires when two or more
// of launch/contact/finish are missing or the stream's mean tracking
// confidence is under the floor. The located events always respect
// canonical order (load <= launch <= contact <= finish).
func (s *Segmenter) Segment(frames []model.FrameKeypoints, fps float64) Outcome {
	out := Outcome{Events: model.SwingEvents{}}
	out.MeanConfidence = meanConfidence(frames)

	if len(frames) < minFrames {
		out.NeedsRetake = true
		out.Reasons = append(out.Reasons, fmt.Sprintf("too few usable frames (%d)", len(frames)))
		return out
	}

	speed := smooth(wristSpeed(frames, fps, s.trackThreshold), s.smoothingWindow)
	peak, peakSpeed := argmax(speed)

	if peak >= 0 && peakSpeed > 0 {
		if launch, ok := s.findLaunch(speed, peak, peakSpeed); ok {
			out.Events[model.EventLaunch] = frames[launch].FrameIndex
			if load, okLoad := findLoad(speed, launch); okLoad {
				out.Events[model.EventLoad] = frames[load].FrameIndex
			}
		}
		if contact, ok := findContact(speed, peak); ok {
			out.Events[model.EventContact] = frames[contact].FrameIndex
			if finish, okFin := s.findFinish(speed, contact, peakSpeed); okFin {
				out.Events[model.EventFinish] = frames[finish].FrameIndex
			}
		}
	}

	enforceOrder(out.Events)

	if missing := out.Events.MissingCritical(); len(missing) >= 2 {
		out.NeedsRetake = true
		for _, e := range missing {
			out.Reasons = append(out.Reasons, fmt.Sprintf("could not locate %s event", e))
		}
	}
	if out.MeanConfidence < s.confidenceFloor {
		out.NeedsRetake = true
		out.Reasons = append(out.Reasons,
			fmt.Sprintf("low tracking confidence (%.2f)", out.MeanConfidence))
	}
	return out
}

// findLaunch walks back from the speed peak to the last frame still under
// the launch fraction; the swing starts where the bat proxy first picks up
// real speed.
func (s *Segmenter) findLaunch(speed []float64, peak int, peakSpeed float64) (int, bool) {
	threshold := s.launchFraction * peakSpeed
	for i := peak; i >= 0; i-- {
		if !math.IsNaN(speed[i]) && speed[i] < threshold {
			return i, true
		}
	}
	return 0, false
}

// findLoad takes the minimum-speed frame before launch: the quiet gather
// position preceding the move.
func findLoad(speed []float64, launch int) (int, bool) {
	best, bestSpeed := -1, math.Inf(1)
	for i := 0; i <= launch; i++ {
		if !math.IsNaN(speed[i]) && speed[i] < bestSpeed {
			best, bestSpeed = i, speed[i]
		}
	}
	return best, best >= 0
}

// findContact takes the first local speed minimum at or after the peak; the
// bat proxy decelerates into the ball and momentarily dips.
func findContact(speed []float64, peak int) (int, bool) {
	for i := peak + 1; i < len(speed)-1; i++ {
		if math.IsNaN(speed[i]) || math.IsNaN(speed[i-1]) || math.IsNaN(speed[i+1]) {
			continue
		}
		if speed[i] <= speed[i-1] && speed[i] <= speed[i+1] {
			return i, true
		}
	}
	return 0, false
}

// findFinish takes the start of the first window after contact where the
// speed stays under the finish fraction of peak: the follow-through
// plateau.
func (s *Segmenter) findFinish(speed []float64, contact int, peakSpeed float64) (int, bool) {
	threshold := s.finishFraction * peakSpeed
	run := 0
	for i := contact + 1; i < len(speed); i++ {
		if !math.IsNaN(speed[i]) && speed[i] < threshold {
			run++
			if run >= s.plateauFrames {
				return i - run + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

// enforceOrder drops events that violate canonical order, keeping the
// earlier event in canonical order when two conflict.
func enforceOrder(events model.SwingEvents) {
	last := -1
	for _, e := range model.EventOrder() {
		idx, ok := events[e]
		if !ok {
			continue
		}
		if last >= 0 && idx < last {
			delete(events, e)
			continue
		}
		last = idx
	}
}

// meanConfidence averages detection confidence across every keypoint in the
// stream. Frames without keypoints contribute nothing.
func meanConfidence(frames []model.FrameKeypoints) float64 {
	var vals []float64
	for _, f := range frames {
		for _, kp := range f.Keypoints {
			vals = append(vals, kp.Confidence)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// wristSpeed builds the bat-proxy speed series in pixels per second using
// the mean of the confidently tracked wrists, with a central difference
// over frame timestamps. Frames where no wrist is tracked yield NaN.
func wristSpeed(frames []model.FrameKeypoints, fps float64, threshold float64) []float64 {
	n := len(frames)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, f := range frames {
		xs[i], ys[i] = wristCenter(f, threshold)
	}

	fallbackDt := 0.0
	if fps > 0 {
		fallbackDt = 1.0 / fps
	}

	speed := make([]float64, n)
	for i := range speed {
		speed[i] = math.NaN()
	}
	for i := 1; i < n-1; i++ {
		if math.IsNaN(xs[i-1]) || math.IsNaN(xs[i+1]) {
			continue
		}
		dt := (frames[i+1].TimestampMs - frames[i-1].TimestampMs) / 1000.0
		if dt <= 0 {
			dt = 2 * fallbackDt
		}
		if dt <= 0 {
			continue
		}
		dx := xs[i+1] - xs[i-1]
		dy := ys[i+1] - ys[i-1]
		speed[i] = math.Hypot(dx, dy) / dt
	}
	return speed
}

func wristCenter(f model.FrameKeypoints, threshold float64) (float64, float64) {
	var sx, sy float64
	var n int
	for _, lm := range []model.Landmark{model.LeftWrist, model.RightWrist} {
		if kp, ok := f.ConfidentKeypoint(lm, threshold); ok {
			sx += kp.X
			sy += kp.Y
			n++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	return sx / float64(n), sy / float64(n)
}

// smooth applies a centered moving average, skipping NaN samples. A window
// with no valid samples stays NaN.
func smooth(series []float64, window int) []float64 {
	if window <= 1 {
		return series
	}
	half := window / 2
	out := make([]float64, len(series))
	for i := range series {
		var sum float64
		var n int
		for j := i - half; j <= i+half; j++ {
			if j < 0 || j >= len(series) || math.IsNaN(series[j]) {
				continue
			}
			sum += series[j]
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

func argmax(series []float64) (int, float64) {
	best, bestVal := -1, math.Inf(-1)
	for i, v := range series {
		if !math.IsNaN(v) && v > bestVal {
			best, bestVal = i, v
		}
	}
	return best, bestVal
}
