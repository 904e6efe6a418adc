// Package synth generates deterministic synthetic swing pose streams for
// tests and load tooling. Streams resemble a MoveNet-style detector watching
// one right-handed batter from the open side.
package synth

import (
	"math/rand"

	"github.com/jcortez/swinglab/internal/domain/model"
	"github.com/jcortez/swinglab/internal/domain/pose"
)

// Default generation constants.
const (
	defaultFrameCount = 60
	defaultFPS        = 30.0
	defaultConfidence = 0.9
	defaultNoisePx    = 1.5

	// Swing phase anchors as fractions of the stream.
	loadEndFraction     = 0.25
	peakFraction        = 0.45
	contactFraction     = 0.55
	finishStartFraction = 0.75

	// Wrist speed profile in pixels per second.
	quietSpeed   = 5.0
	peakSpeed    = 900.0
	preDipSpeed  = 160.0
	dipSpeed     = 110.0
	bounceSpeed  = 190.0
	settleSpeed  = 8.0
	plateauSpeed = 6.0
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithFrameCount sets the stream length.
func WithFrameCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.frameCount = n
		}
	}
}

// WithFPS sets the capture frame rate.
func WithFPS(fps float64) Option {
	return func(g *Generator) {
		if fps > 0 {
			g.fps = fps
		}
	}
}

// WithSeed fixes the jitter source. Streams with equal options and seed are
// byte-for-byte identical.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithConfidence sets the detection confidence emitted for every keypoint.
func WithConfidence(c float64) Option {
	return func(g *Generator) {
		if c >= 0 && c <= 1 {
			g.confidence = c
		}
	}
}

// WithNoise sets the positional jitter amplitude in pixels.
func WithNoise(px float64) Option {
	return func(g *Generator) {
		if px >= 0 {
			g.noisePx = px
		}
	}
}

// Generator produces synthetic detector output.
type Generator struct {
	frameCount int
	fps        float64
	seed       int64
	confidence float64
	noisePx    float64
}

// New creates a Generator with configuration options.
func New(opts ...Option) *Generator {
	g := &Generator{
		frameCount: defaultFrameCount,
		fps:        defaultFPS,
		seed:       1,
		confidence: defaultConfidence,
		noisePx:    defaultNoisePx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// skeleton is the batter's stance in pixel coordinates, origin top-left.
var skeleton = map[model.Landmark][2]float64{
	model.Nose:          {300, 80},
	model.LeftEye:       {308, 74},
	model.RightEye:      {292, 74},
	model.LeftEar:       {316, 78},
	model.RightEar:      {284, 78},
	model.LeftShoulder:  {340, 140},
	model.RightShoulder: {260, 140},
	model.LeftElbow:     {360, 190},
	model.RightElbow:    {300, 195},
	model.LeftHip:       {330, 260},
	model.RightHip:      {270, 260},
	model.LeftKnee:      {330, 340},
	model.RightKnee:     {270, 340},
	model.LeftAnkle:     {330, 420},
	model.RightAnkle:    {270, 420},
}

var wristStart = [2]float64{352, 224}

// swingDirection is the unit vector the hands travel along through the zone.
var swingDirection = [2]float64{0.9, -0.4358898943540674}

// Swing produces one full swing: quiet load, acceleration to a speed peak,
// a contact dip, deceleration and a follow-through plateau.
func (g *Generator) Swing() []pose.RawFrame {
	rng := rand.New(rand.NewSource(g.seed))
	frames := make([]pose.RawFrame, g.frameCount)

	dt := 1.0 / g.fps
	wx, wy := wristStart[0], wristStart[1]
	for i := range frames {
		speed := g.speedAt(i)
		wx += speed * dt * swingDirection[0]
		wy += speed * dt * swingDirection[1]
		frames[i] = g.frame(i, wx, wy, rng)
	}
	return frames
}

// Stance produces a stream with no swing in it: the batter stands still. The
// segmenter cannot locate contact or finish in such a stream.
func (g *Generator) Stance() []pose.RawFrame {
	rng := rand.New(rand.NewSource(g.seed))
	frames := make([]pose.RawFrame, g.frameCount)
	for i := range frames {
		frames[i] = g.frame(i, wristStart[0], wristStart[1], rng)
	}
	return frames
}

// speedAt evaluates the wrist speed profile for frame i in px/s.
func (g *Generator) speedAt(i int) float64 {
	n := g.frameCount
	loadEnd := int(loadEndFraction * float64(n))
	peak := int(peakFraction * float64(n))
	contact := int(contactFraction * float64(n))
	finishStart := int(finishStartFraction * float64(n))

	switch {
	case i < loadEnd:
		return quietSpeed
	case i < peak:
		t := float64(i-loadEnd) / float64(peak-loadEnd)
		return quietSpeed + t*(peakSpeed-quietSpeed)
	case i < contact:
		t := float64(i-peak) / float64(contact-peak)
		return peakSpeed + t*(preDipSpeed-peakSpeed)
	case i == contact:
		return dipSpeed
	case i == contact+1:
		return bounceSpeed
	case i < finishStart:
		t := float64(i-contact-1) / float64(finishStart-contact-1)
		return bounceSpeed + t*(settleSpeed-bounceSpeed)
	default:
		return plateauSpeed
	}
}

func (g *Generator) frame(i int, wx, wy float64, rng *rand.Rand) pose.RawFrame {
	landmarks := make([]pose.RawLandmark, 0, len(skeleton)+2)
	// Fixed iteration order keeps equal seeds producing equal streams.
	for _, name := range model.AllLandmarks() {
		p, ok := skeleton[name]
		if !ok {
			continue
		}
		landmarks = append(landmarks, pose.RawLandmark{
			Name:       string(name),
			X:          p[0] + g.jitter(rng),
			Y:          p[1] + g.jitter(rng),
			Confidence: g.confidence,
		})
	}
	// Hands travel together on the bat.
	landmarks = append(landmarks,
		pose.RawLandmark{
			Name:       string(model.LeftWrist),
			X:          wx + g.jitter(rng),
			Y:          wy + g.jitter(rng),
			Confidence: g.confidence,
		},
		pose.RawLandmark{
			Name:       string(model.RightWrist),
			X:          wx - 6 + g.jitter(rng),
			Y:          wy + 4 + g.jitter(rng),
			Confidence: g.confidence,
		},
	)

	return pose.RawFrame{
		FrameIndex:  i,
		TimestampMs: float64(i) * 1000.0 / g.fps,
		People: []pose.RawPerson{
			{Score: g.confidence, Landmarks: landmarks},
		},
	}
}

func (g *Generator) jitter(rng *rand.Rand) float64 {
	if g.noisePx == 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * g.noisePx
}

// Normalized is a convenience for tests that want canonical frames directly.
func (g *Generator) Normalized() []model.FrameKeypoints {
	return pose.Normalize(g.Swing())
}
