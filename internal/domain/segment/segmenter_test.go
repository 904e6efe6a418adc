package segment_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jcortez/swinglab/internal/domain/model"
	"github.com/jcortez/swinglab/internal/domain/pose"
	"github.com/jcortez/swinglab/internal/domain/segment"
	"github.com/jcortez/swinglab/internal/synth"
)

func TestSegmentSwing(t *testing.T) {
	Convey("Given a clean synthetic swing", t, func() {
		frames := synth.New(synth.WithSeed(7)).Normalized()
		s := segment.New()

		out := s.Segment(frames, 30)

		Convey("Then the attempt is scorable", func() {
			So(out.NeedsRetake, ShouldBeFalse)
			So(out.Reasons, ShouldBeEmpty)
		})

		Convey("Then every critical event is located", func() {
			So(out.Events.MissingCritical(), ShouldBeEmpty)
		})

		Convey("Then located events respect canonical order", func() {
			So(out.Events.Ordered(), ShouldBeTrue)
		})

		Convey("Then launch lands after the quiet load phase begins", func() {
			launch, ok := out.Events.Frame(model.EventLaunch)
			So(ok, ShouldBeTrue)
			contact, ok := out.Events.Frame(model.EventContact)
			So(ok, ShouldBeTrue)
			So(launch, ShouldBeLessThan, contact)
		})

		Convey("Then mean confidence reflects the stream", func() {
			So(out.MeanConfidence, ShouldBeGreaterThan, 0.8)
		})
	})

	Convey("Given identical input", t, func() {
		frames := synth.New(synth.WithSeed(11)).Normalized()
		s := segment.New()

		first := s.Segment(frames, 30)
		second := s.Segment(frames, 30)

		Convey("Then segmentation is deterministic", func() {
			So(second.Events, ShouldResemble, first.Events)
			So(second.NeedsRetake, ShouldEqual, first.NeedsRetake)
		})
	})
}

func TestSegmentRetakeGate(t *testing.T) {
	Convey("Given a stream where the batter never swings", t, func() {
		frames := pose.Normalize(synth.New(synth.WithNoise(0)).Stance())
		s := segment.New()

		out := s.Segment(frames, 30)

		Convey("Then missing critical events gate a retake", func() {
			So(out.NeedsRetake, ShouldBeTrue)
			So(len(out.Events.MissingCritical()), ShouldBeGreaterThanOrEqualTo, 2)
			So(out.Reasons, ShouldNotBeEmpty)
		})
	})

	Convey("Given a stream already in motion that never settles", t, func() {
		// The wrists move fast from the very first frame, so no quiet phase
		// precedes the speed peak and launch cannot be located. A brief
		// deceleration after the burst still yields a contact dip, but the
		// speed never holds a follow-through plateau, so finish is missing
		// too. That leaves exactly two critical events absent, the gate's
		// threshold.
		steps := []float64{10, 10, 10, 10, 10, 30, 30, 2, 10, 10, 10, 10, 10, 10, 10}
		frames := make([]model.FrameKeypoints, len(steps)+1)
		x := 0.0
		for i := range frames {
			frames[i] = model.FrameKeypoints{
				FrameIndex:  i,
				TimestampMs: float64(i) * 1000 / 30,
				Keypoints: map[model.Landmark]model.Keypoint{
					model.LeftWrist:  {Name: model.LeftWrist, X: x, Y: 100, Confidence: 0.9},
					model.RightWrist: {Name: model.RightWrist, X: x, Y: 100, Confidence: 0.9},
				},
			}
			if i < len(steps) {
				x += steps[i]
			}
		}
		s := segment.New()

		out := s.Segment(frames, 30)

		Convey("Then two absent critical events gate the retake", func() {
			So(out.NeedsRetake, ShouldBeTrue)
			So(out.Events.MissingCritical(), ShouldResemble,
				[]model.Event{model.EventLaunch, model.EventFinish})
			So(out.Reasons, ShouldResemble, []string{
				"could not locate launch event",
				"could not locate finish event",
			})
		})

		Convey("Then contact alone is still located", func() {
			_, ok := out.Events.Frame(model.EventContact)
			So(ok, ShouldBeTrue)
			So(out.MeanConfidence, ShouldBeGreaterThan, 0.45)
		})
	})

	Convey("Given a low-confidence stream", t, func() {
		frames := synth.New(synth.WithConfidence(0.3)).Normalized()
		s := segment.New()

		out := s.Segment(frames, 30)

		Convey("Then the confidence floor gates a retake", func() {
			So(out.NeedsRetake, ShouldBeTrue)
			So(out.MeanConfidence, ShouldBeLessThan, 0.45)
		})

		Convey("And a lowered floor lets the same stream through", func() {
			relaxed := segment.New(segment.WithConfidenceFloor(0.1))
			So(relaxed.Segment(frames, 30).NeedsRetake, ShouldBeFalse)
		})
	})

	Convey("Given too few frames", t, func() {
		frames := synth.New(synth.WithFrameCount(5)).Normalized()
		s := segment.New()

		out := s.Segment(frames, 30)

		Convey("Then the stream is gated regardless of content", func() {
			So(out.NeedsRetake, ShouldBeTrue)
			So(out.Reasons, ShouldNotBeEmpty)
		})
	})

	Convey("Given an empty stream", t, func() {
		out := segment.New().Segment(nil, 30)

		So(out.NeedsRetake, ShouldBeTrue)
		So(out.MeanConfidence, ShouldEqual, 0)
	})
}

func TestSegmentTimestamps(t *testing.T) {
	Convey("Given frames without usable timestamps", t, func() {
		frames := synth.New(synth.WithSeed(3)).Normalized()
		for i := range frames {
			frames[i].TimestampMs = 0
		}
		s := segment.New()

		Convey("Then the fps fallback still yields a scorable stream", func() {
			out := s.Segment(frames, 30)
			So(out.NeedsRetake, ShouldBeFalse)
			So(out.Events.MissingCritical(), ShouldBeEmpty)
		})
	})
}
