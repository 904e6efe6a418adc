// Package measure computes the fixed set of biomechanical swing metrics
// from keypoints at the segmented event frames. Compute is a pure function:
// identical inputs always produce identical output, and one metric's
// missing inputs never disturb another metric.
package measure

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// Metric names. These keys tie measurements to their specs, cues and drills.
const (
	MetricHeadDrift             = "head_drift_cm"
	MetricAttackAngle           = "attack_angle_deg"
	MetricHipShoulderSeparation = "hip_shoulder_separation_deg"
	MetricBatLag                = "bat_lag_deg"
	MetricBatSpeed              = "bat_speed_mph"
	MetricPelvisTilt            = "pelvis_tilt_deg"
	MetricSwingPlane            = "swing_plane_deg"
	MetricArmExtension          = "arm_extension_cm"
	MetricTimeToContact         = "time_to_contact_ms"
	MetricLaunchAngle           = "launch_angle_deg"
	MetricShoulderAngle         = "shoulder_angle_deg"
)

// MetricNames lists every metric the computer produces, in stable order.
func MetricNames() []string {
	return []string{
		MetricHeadDrift,
		MetricAttackAngle,
		MetricHipShoulderSeparation,
		MetricBatLag,
		MetricBatSpeed,
		MetricPelvisTilt,
		MetricSwingPlane,
		MetricArmExtension,
		MetricTimeToContact,
		MetricLaunchAngle,
		MetricShoulderAngle,
	}
}

// Measurement constants.
const (
	// keypointThreshold is the confidence under which a keypoint is absent
	// for measurement purposes.
	keypointThreshold = 0.4
	// lowConfidenceFloor flags the whole result when the stream's mean
	// confidence sits under it.
	lowConfidenceFloor = 0.45
	// assumedHeightCm converts the estimated standing height in pixels to a
	// physical scale. Without athlete profiles this is a population prior.
	assumedHeightCm = 175.0
	// noseToCrownFactor stretches nose-to-ankle height to full standing
	// height; the nose sits below the crown.
	noseToCrownFactor = 1.08
	cmPerSecToMph     = 0.0223694
)

type computer struct {
	frames  []model.FrameKeypoints // ordered as received
	byIndex map[int]int            // frame index -> position in frames
	events  model.SwingEvents
	fps     float64
	cmPerPx float64 // 0 when no scale could be estimated
}

// Compute derives every metric from the keypoints at the relevant event
// frames. A metric whose landmarks are missing or under the confidence
// threshold at its required frame is absent, independently of all others.
func Compute(frames []model.FrameKeypoints, events model.SwingEvents, fps float64) model.MetricsResult {
	c := &computer{
		frames:  frames,
		byIndex: make(map[int]int, len(frames)),
		events:  events,
		fps:     fps,
	}
	for pos, f := range frames {
		c.byIndex[f.FrameIndex] = pos
	}
	c.cmPerPx = c.estimateScale()

	metrics := map[string]model.Measurement{
		MetricHeadDrift:             c.headDrift(),
		MetricAttackAngle:           c.attackAngle(),
		MetricHipShoulderSeparation: c.hipShoulderSeparation(),
		MetricBatLag:                c.batLag(),
		MetricBatSpeed:              c.batSpeed(),
		MetricPelvisTilt:            c.pelvisTilt(),
		MetricSwingPlane:            c.swingPlane(),
		MetricArmExtension:          c.armExtension(),
		MetricTimeToContact:         c.timeToContact(),
		MetricLaunchAngle:           c.launchAngle(),
		MetricShoulderAngle:         c.shoulderAngle(),
	}

	return model.MetricsResult{
		Metrics: metrics,
		Quality: c.qualityFlags(),
	}
}

func (c *computer) qualityFlags() model.QualityFlags {
	flags := model.QualityFlags{}
	var conf []float64
	for _, f := range c.frames {
		for _, kp := range f.Keypoints {
			conf = append(conf, kp.Confidence)
		}
	}
	if len(conf) == 0 || stat.Mean(conf, nil) < lowConfidenceFloor {
		flags.LowConfidence = true
	}
	for _, e := range model.EventOrder() {
		if _, ok := c.events[e]; !ok {
			flags.MissingEvents = append(flags.MissingEvents, e)
		}
	}
	return flags
}

// frameAt resolves an event to its frame.
func (c *computer) frameAt(e model.Event) (model.FrameKeypoints, bool) {
	idx, ok := c.events.Frame(e)
	if !ok {
		return model.FrameKeypoints{}, false
	}
	pos, ok := c.byIndex[idx]
	if !ok {
		return model.FrameKeypoints{}, false
	}
	return c.frames[pos], true
}

// frameNear resolves an event frame offset by delta positions in the
// processed sequence.
func (c *computer) frameNear(e model.Event, delta int) (model.FrameKeypoints, bool) {
	idx, ok := c.events.Frame(e)
	if !ok {
		return model.FrameKeypoints{}, false
	}
	pos, ok := c.byIndex[idx]
	if !ok {
		return model.FrameKeypoints{}, false
	}
	pos += delta
	if pos < 0 || pos >= len(c.frames) {
		return model.FrameKeypoints{}, false
	}
	return c.frames[pos], true
}

// estimateScale derives centimeters-per-pixel from standing height in a
// reference frame: the load frame when present, otherwise the first frame
// with the needed landmarks. Returns 0 when no frame qualifies.
func (c *computer) estimateScale() float64 {
	if f, ok := c.frameAt(model.EventLoad); ok {
		if scale, ok := scaleFromFrame(f); ok {
			return scale
		}
	}
	for _, f := range c.frames {
		if scale, ok := scaleFromFrame(f); ok {
			return scale
		}
	}
	return 0
}

func scaleFromFrame(f model.FrameKeypoints) (float64, bool) {
	nose, ok := f.ConfidentKeypoint(model.Nose, keypointThreshold)
	if !ok {
		return 0, false
	}
	la, okL := f.ConfidentKeypoint(model.LeftAnkle, keypointThreshold)
	ra, okR := f.ConfidentKeypoint(model.RightAnkle, keypointThreshold)
	var ankleY float64
	switch {
	case okL && okR:
		ankleY = (la.Y + ra.Y) / 2
	case okL:
		ankleY = la.Y
	case okR:
		ankleY = ra.Y
	default:
		return 0, false
	}
	heightPx := (ankleY - nose.Y) * noseToCrownFactor
	if heightPx <= 0 {
		return 0, false
	}
	return assumedHeightCm / heightPx, true
}

func absent() model.Measurement { return model.Measurement{} }

func present(v float64) model.Measurement {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return absent()
	}
	return model.Measurement{Value: v, Present: true}
}

// headDrift is the lateral head travel between load and contact, in cm.
func (c *computer) headDrift() model.Measurement {
	if c.cmPerPx == 0 {
		return absent()
	}
	loadF, ok := c.frameAt(model.EventLoad)
	if !ok {
		return absent()
	}
	contactF, ok := c.frameAt(model.EventContact)
	if !ok {
		return absent()
	}
	noseLoad, ok := loadF.ConfidentKeypoint(model.Nose, keypointThreshold)
	if !ok {
		return absent()
	}
	noseContact, ok := contactF.ConfidentKeypoint(model.Nose, keypointThreshold)
	if !ok {
		return absent()
	}
	return present(math.Abs(noseContact.X-noseLoad.X) * c.cmPerPx)
}

// attackAngle is the bat-proxy path angle through contact, in degrees
// above horizontal.
func (c *computer) attackAngle() model.Measurement {
	before, ok := c.frameNear(model.EventContact, -1)
	if !ok {
		return absent()
	}
	after, ok := c.frameNear(model.EventContact, +1)
	if !ok {
		return absent()
	}
	x1, y1, ok := wristCenter(before)
	if !ok {
		return absent()
	}
	x2, y2, ok := wristCenter(after)
	if !ok {
		return absent()
	}
	return present(pathAngleDeg(x2-x1, y2-y1))
}

// hipShoulderSeparation is the angle between the shoulder line and the hip
// line at launch, in degrees.
func (c *computer) hipShoulderSeparation() model.Measurement {
	f, ok := c.frameAt(model.EventLaunch)
	if !ok {
		return absent()
	}
	ls, ok1 := f.ConfidentKeypoint(model.LeftShoulder, keypointThreshold)
	rs, ok2 := f.ConfidentKeypoint(model.RightShoulder, keypointThreshold)
	lh, ok3 := f.ConfidentKeypoint(model.LeftHip, keypointThreshold)
	rh, ok4 := f.ConfidentKeypoint(model.RightHip, keypointThreshold)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return absent()
	}
	return present(angleBetweenDeg(lineAngleDeg(ls, rs), lineAngleDeg(lh, rh)))
}

// batLag is the angle between the lead forearm and the shoulder line at
// launch, in degrees.
func (c *computer) batLag() model.Measurement {
	f, ok := c.frameAt(model.EventLaunch)
	if !ok {
		return absent()
	}
	ls, ok1 := f.ConfidentKeypoint(model.LeftShoulder, keypointThreshold)
	rs, ok2 := f.ConfidentKeypoint(model.RightShoulder, keypointThreshold)
	if !ok1 || !ok2 {
		return absent()
	}
	elbow, wrist, ok := leadForearm(f)
	if !ok {
		return absent()
	}
	return present(angleBetweenDeg(lineAngleDeg(elbow, wrist), lineAngleDeg(ls, rs)))
}

// batSpeed is the peak bat-proxy speed between launch and contact, in mph.
func (c *computer) batSpeed() model.Measurement {
	if c.cmPerPx == 0 {
		return absent()
	}
	launchIdx, ok := c.events.Frame(model.EventLaunch)
	if !ok {
		return absent()
	}
	contactIdx, ok := c.events.Frame(model.EventContact)
	if !ok {
		return absent()
	}
	startPos, ok := c.byIndex[launchIdx]
	if !ok {
		return absent()
	}
	endPos, ok := c.byIndex[contactIdx]
	if !ok || endPos <= startPos {
		return absent()
	}

	peak := math.NaN()
	for pos := startPos + 1; pos <= endPos; pos++ {
		prev, cur := c.frames[pos-1], c.frames[pos]
		x1, y1, ok1 := wristCenter(prev)
		x2, y2, ok2 := wristCenter(cur)
		if !ok1 || !ok2 {
			continue
		}
		dt := (cur.TimestampMs - prev.TimestampMs) / 1000.0
		if dt <= 0 && c.fps > 0 {
			dt = 1.0 / c.fps
		}
		if dt <= 0 {
			continue
		}
		pxPerSec := math.Hypot(x2-x1, y2-y1) / dt
		mph := pxPerSec * c.cmPerPx * cmPerSecToMph
		if math.IsNaN(peak) || mph > peak {
			peak = mph
		}
	}
	if math.IsNaN(peak) {
		return absent()
	}
	return present(peak)
}

// pelvisTilt is the hip line's angle against the horizontal at contact, in
// unsigned degrees.
func (c *computer) pelvisTilt() model.Measurement {
	f, ok := c.frameAt(model.EventContact)
	if !ok {
		return absent()
	}
	lh, ok1 := f.ConfidentKeypoint(model.LeftHip, keypointThreshold)
	rh, ok2 := f.ConfidentKeypoint(model.RightHip, keypointThreshold)
	if !ok1 || !ok2 {
		return absent()
	}
	return present(math.Abs(lineAngleDeg(lh, rh)))
}

// swingPlane is the slope angle of the line fit through the bat-proxy path
// from launch to contact, in degrees above horizontal.
func (c *computer) swingPlane() model.Measurement {
	launchIdx, ok := c.events.Frame(model.EventLaunch)
	if !ok {
		return absent()
	}
	contactIdx, ok := c.events.Frame(model.EventContact)
	if !ok {
		return absent()
	}
	startPos, ok := c.byIndex[launchIdx]
	if !ok {
		return absent()
	}
	endPos, ok := c.byIndex[contactIdx]
	if !ok || endPos < startPos {
		return absent()
	}

	var xs, ys []float64
	for pos := startPos; pos <= endPos; pos++ {
		if x, y, ok := wristCenter(c.frames[pos]); ok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 3 || allEqual(xs) {
		return absent()
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return present(math.Atan(-slope) * 180 / math.Pi)
}

// armExtension is the lead shoulder-to-wrist distance at contact, in cm.
func (c *computer) armExtension() model.Measurement {
	if c.cmPerPx == 0 {
		return absent()
	}
	f, ok := c.frameAt(model.EventContact)
	if !ok {
		return absent()
	}
	shoulder, wrist, ok := leadArm(f)
	if !ok {
		return absent()
	}
	return present(distancePx(shoulder, wrist) * c.cmPerPx)
}

// timeToContact is the elapsed time from launch to contact, in ms.
func (c *computer) timeToContact() model.Measurement {
	launchF, ok := c.frameAt(model.EventLaunch)
	if !ok {
		return absent()
	}
	contactF, ok := c.frameAt(model.EventContact)
	if !ok {
		return absent()
	}
	dt := contactF.TimestampMs - launchF.TimestampMs
	if dt <= 0 && c.fps > 0 {
		dt = float64(contactF.FrameIndex-launchF.FrameIndex) / c.fps * 1000
	}
	if dt <= 0 {
		return absent()
	}
	return present(dt)
}

// launchAngle is the bat-proxy path angle right after contact, in degrees
// above horizontal.
func (c *computer) launchAngle() model.Measurement {
	at, ok := c.frameAt(model.EventContact)
	if !ok {
		return absent()
	}
	after, ok := c.frameNear(model.EventContact, +2)
	if !ok {
		if after, ok = c.frameNear(model.EventContact, +1); !ok {
			return absent()
		}
	}
	x1, y1, ok := wristCenter(at)
	if !ok {
		return absent()
	}
	x2, y2, ok := wristCenter(after)
	if !ok {
		return absent()
	}
	return present(pathAngleDeg(x2-x1, y2-y1))
}

// shoulderAngle is the shoulder line's angle against the horizontal at
// launch, in unsigned degrees.
func (c *computer) shoulderAngle() model.Measurement {
	f, ok := c.frameAt(model.EventLaunch)
	if !ok {
		return absent()
	}
	ls, ok1 := f.ConfidentKeypoint(model.LeftShoulder, keypointThreshold)
	rs, ok2 := f.ConfidentKeypoint(model.RightShoulder, keypointThreshold)
	if !ok1 || !ok2 {
		return absent()
	}
	return present(math.Abs(lineAngleDeg(ls, rs)))
}

// wristCenter averages the confidently tracked wrists.
func wristCenter(f model.FrameKeypoints) (float64, float64, bool) {
	var sx, sy float64
	var n int
	for _, lm := range []model.Landmark{model.LeftWrist, model.RightWrist} {
		if kp, ok := f.ConfidentKeypoint(lm, keypointThreshold); ok {
			sx += kp.X
			sy += kp.Y
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}

// leadArm picks the arm whose wrist sits farther from the body midline;
// with a side-on camera that is the arm extended toward the pitcher. The
// choice is deterministic: ties go to the left arm.
func leadArm(f model.FrameKeypoints) (shoulder, wrist model.Keypoint, ok bool) {
	lh, okLH := f.ConfidentKeypoint(model.LeftHip, keypointThreshold)
	rh, okRH := f.ConfidentKeypoint(model.RightHip, keypointThreshold)

	type arm struct {
		shoulder, wrist model.Keypoint
		spread          float64
	}
	var arms []arm
	for _, side := range []struct{ s, w model.Landmark }{
		{model.LeftShoulder, model.LeftWrist},
		{model.RightShoulder, model.RightWrist},
	} {
		s, okS := f.ConfidentKeypoint(side.s, keypointThreshold)
		w, okW := f.ConfidentKeypoint(side.w, keypointThreshold)
		if !okS || !okW {
			continue
		}
		spread := 0.0
		if okLH && okRH {
			midX, _ := midpoint(lh, rh)
			spread = math.Abs(w.X - midX)
		}
		arms = append(arms, arm{shoulder: s, wrist: w, spread: spread})
	}
	if len(arms) == 0 {
		return model.Keypoint{}, model.Keypoint{}, false
	}
	sort.SliceStable(arms, func(i, j int) bool { return arms[i].spread > arms[j].spread })
	return arms[0].shoulder, arms[0].wrist, true
}

// leadForearm is leadArm's elbow-to-wrist counterpart.
func leadForearm(f model.FrameKeypoints) (elbow, wrist model.Keypoint, ok bool) {
	shoulder, _, ok := leadArm(f)
	if !ok {
		return model.Keypoint{}, model.Keypoint{}, false
	}
	side := struct{ e, w model.Landmark }{model.LeftElbow, model.LeftWrist}
	if rs, okRS := f.ConfidentKeypoint(model.RightShoulder, keypointThreshold); okRS && rs == shoulder {
		side = struct{ e, w model.Landmark }{model.RightElbow, model.RightWrist}
	}
	e, okE := f.ConfidentKeypoint(side.e, keypointThreshold)
	w, okW := f.ConfidentKeypoint(side.w, keypointThreshold)
	if !okE || !okW {
		return model.Keypoint{}, model.Keypoint{}, false
	}
	return e, w, true
}

func allEqual(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
