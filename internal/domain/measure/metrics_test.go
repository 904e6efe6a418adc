package measure_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jcortez/swinglab/internal/domain/measure"
	"github.com/jcortez/swinglab/internal/domain/model"
	"github.com/jcortez/swinglab/internal/synth"
)

const fixtureFPS = 30.0

// fixture builds five frames of a compact swing with every landmark the
// metrics need, at confidence 0.9. Wrists travel launch through contact into
// the follow-through; the athlete's standing height spans nose y=80 to
// ankle y=420.
func fixture() ([]model.FrameKeypoints, model.SwingEvents) {
	wrists := [][2]float64{
		{350, 240}, {352, 239}, {350, 240}, {360, 235}, {370, 230},
	}
	frames := make([]model.FrameKeypoints, len(wrists))
	for i, w := range wrists {
		pts := map[model.Landmark][2]float64{
			model.Nose:          {300, 80},
			model.LeftShoulder:  {340, 140},
			model.RightShoulder: {260, 140},
			model.LeftElbow:     {360, 190},
			model.RightElbow:    {300, 195},
			model.LeftWrist:     w,
			model.RightWrist:    w,
			model.LeftHip:       {330, 260},
			model.RightHip:      {270, 260},
			model.LeftAnkle:     {330, 420},
			model.RightAnkle:    {270, 420},
		}
		if i == 1 {
			// Shoulders tilt into launch.
			pts[model.RightShoulder] = [2]float64{260, 150}
		}
		if i == 3 {
			// The head drifts forward by contact.
			pts[model.Nose] = [2]float64{305, 80}
		}
		frames[i] = frameOf(i, pts)
	}
	events := model.SwingEvents{
		model.EventLoad:    0,
		model.EventLaunch:  1,
		model.EventContact: 3,
		model.EventFinish:  4,
	}
	return frames, events
}

func frameOf(i int, pts map[model.Landmark][2]float64) model.FrameKeypoints {
	f := model.FrameKeypoints{
		FrameIndex:  i,
		TimestampMs: float64(i) * 1000.0 / fixtureFPS,
		Keypoints:   make(map[model.Landmark]model.Keypoint, len(pts)),
	}
	for name, p := range pts {
		f.Keypoints[name] = model.Keypoint{Name: name, X: p[0], Y: p[1], Confidence: 0.9}
	}
	return f
}

func TestComputeMetrics(t *testing.T) {
	Convey("Given a complete fixture swing", t, func() {
		frames, events := fixture()

		result := measure.Compute(frames, events, fixtureFPS)

		// 175cm over (420-80)*1.08 pixels of standing height.
		cmPerPx := 175.0 / 367.2

		Convey("Then every metric is present", func() {
			for _, name := range measure.MetricNames() {
				m, ok := result.Metrics[name]
				So(ok, ShouldBeTrue)
				So(m.Present, ShouldBeTrue)
			}
		})

		Convey("Then head drift scales the nose travel to cm", func() {
			So(result.Metrics[measure.MetricHeadDrift].Value, ShouldAlmostEqual, 5*cmPerPx, 1e-6)
		})

		Convey("Then the attack angle follows the wrist path through contact", func() {
			// (350,240) -> (370,230): 10px of rise over 20px of run.
			So(result.Metrics[measure.MetricAttackAngle].Value, ShouldAlmostEqual, 26.565, 0.001)
		})

		Convey("Then hip-shoulder separation reflects the launch tilt", func() {
			So(result.Metrics[measure.MetricHipShoulderSeparation].Value, ShouldAlmostEqual, 7.125, 0.001)
			So(result.Metrics[measure.MetricShoulderAngle].Value, ShouldAlmostEqual, 7.125, 0.001)
		})

		Convey("Then level hips at contact read zero pelvis tilt", func() {
			So(result.Metrics[measure.MetricPelvisTilt].Value, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Then time to contact spans launch to contact", func() {
			So(result.Metrics[measure.MetricTimeToContact].Value, ShouldAlmostEqual, 2000.0/30.0, 1e-6)
		})

		Convey("Then the swing plane fits the wrist path slope", func() {
			So(result.Metrics[measure.MetricSwingPlane].Value, ShouldAlmostEqual, 26.565, 0.001)
		})

		Convey("Then no quality flag fires", func() {
			So(result.Quality.LowConfidence, ShouldBeFalse)
			So(result.Quality.MissingEvents, ShouldBeEmpty)
		})
	})
}

func TestComputeIsPure(t *testing.T) {
	Convey("Given one synthetic input", t, func() {
		gen := synth.New(synth.WithSeed(5))
		frames := gen.Normalized()
		events := model.SwingEvents{
			model.EventLoad:    4,
			model.EventLaunch:  18,
			model.EventContact: 33,
			model.EventFinish:  50,
		}

		Convey("Then repeated computation is identical", func() {
			first := measure.Compute(frames, events, 30)
			second := measure.Compute(frames, events, 30)
			So(second, ShouldResemble, first)
		})
	})
}

func TestMetricAbsenceIsIndependent(t *testing.T) {
	Convey("Given a swing whose nose was never tracked", t, func() {
		frames, events := fixture()
		for i := range frames {
			delete(frames[i].Keypoints, model.Nose)
		}

		result := measure.Compute(frames, events, fixtureFPS)

		Convey("Then scale-dependent metrics are absent", func() {
			So(result.Metrics[measure.MetricHeadDrift].Present, ShouldBeFalse)
			So(result.Metrics[measure.MetricBatSpeed].Present, ShouldBeFalse)
			So(result.Metrics[measure.MetricArmExtension].Present, ShouldBeFalse)
		})

		Convey("Then angle metrics are untouched", func() {
			So(result.Metrics[measure.MetricAttackAngle].Present, ShouldBeTrue)
			So(result.Metrics[measure.MetricHipShoulderSeparation].Present, ShouldBeTrue)
			So(result.Metrics[measure.MetricPelvisTilt].Present, ShouldBeTrue)
			So(result.Metrics[measure.MetricTimeToContact].Present, ShouldBeTrue)
		})

		Convey("Then absent metrics are never zero-filled", func() {
			So(result.Metrics[measure.MetricHeadDrift], ShouldResemble, model.Measurement{})
		})
	})

	Convey("Given a swing with no located contact", t, func() {
		frames, events := fixture()
		delete(events, model.EventContact)

		result := measure.Compute(frames, events, fixtureFPS)

		Convey("Then contact-anchored metrics are absent", func() {
			So(result.Metrics[measure.MetricHeadDrift].Present, ShouldBeFalse)
			So(result.Metrics[measure.MetricAttackAngle].Present, ShouldBeFalse)
			So(result.Metrics[measure.MetricTimeToContact].Present, ShouldBeFalse)
			So(result.Metrics[measure.MetricLaunchAngle].Present, ShouldBeFalse)
		})

		Convey("Then launch-anchored metrics stay present", func() {
			So(result.Metrics[measure.MetricHipShoulderSeparation].Present, ShouldBeTrue)
			So(result.Metrics[measure.MetricBatLag].Present, ShouldBeTrue)
			So(result.Metrics[measure.MetricShoulderAngle].Present, ShouldBeTrue)
		})

		Convey("Then the missing event is flagged", func() {
			So(result.Quality.MissingEvents, ShouldContain, model.EventContact)
		})
	})

	Convey("Given an entirely empty stream", t, func() {
		result := measure.Compute(nil, model.SwingEvents{}, fixtureFPS)

		Convey("Then every metric is absent and confidence is flagged", func() {
			for _, name := range measure.MetricNames() {
				So(result.Metrics[name].Present, ShouldBeFalse)
			}
			So(result.Quality.LowConfidence, ShouldBeTrue)
		})
	})
}
