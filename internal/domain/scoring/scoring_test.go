package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jcortez/swinglab/internal/domain/model"
	scoring "github.com/jcortez/swinglab/internal/domain/scoring"
)

func present(v float64) model.Measurement {
	return model.Measurement{Value: v, Present: true}
}

func absent() model.Measurement {
	return model.Measurement{}
}

func TestSpecNormalize(t *testing.T) {
	Convey("Given a band spec over [5,20]", t, func() {
		spec := scoring.Spec{Min: 5, Max: 20, Weight: 1, Shape: scoring.ToleranceBand}

		Convey("Then quality rises linearly across the window", func() {
			So(spec.Normalize(5), ShouldEqual, 0)
			So(spec.Normalize(12), ShouldAlmostEqual, 7.0/15.0, 1e-9)
			So(spec.Normalize(20), ShouldEqual, 1)
		})

		Convey("Then overshoot past max is penalized, not clamped to full", func() {
			So(spec.Normalize(23), ShouldAlmostEqual, 1-3.0/15.0, 1e-9)
			So(spec.Normalize(500), ShouldEqual, 0)
		})

		Convey("Then undershoot floors at zero", func() {
			So(spec.Normalize(-100), ShouldEqual, 0)
		})
	})

	Convey("Given an inverted spec over [0,5]", t, func() {
		spec := scoring.Spec{Min: 0, Max: 5, Weight: 1, Shape: scoring.ToleranceInverted}

		Convey("Then smaller values score higher", func() {
			So(spec.Normalize(0), ShouldEqual, 1)
			So(spec.Normalize(3), ShouldAlmostEqual, 0.4, 1e-9)
			So(spec.Normalize(5), ShouldEqual, 0)
			So(spec.Normalize(9), ShouldEqual, 0)
		})
	})

	Convey("Given a centered spec over [60,95]", t, func() {
		spec := scoring.Spec{Min: 60, Max: 95, Weight: 1, Shape: scoring.ToleranceCentered}

		Convey("Then quality peaks at the midpoint and falls both ways", func() {
			So(spec.Normalize(77.5), ShouldEqual, 1)
			So(spec.Normalize(60), ShouldEqual, 0)
			So(spec.Normalize(95), ShouldEqual, 0)
			So(spec.Normalize(68.75), ShouldAlmostEqual, 0.5, 1e-9)
			So(spec.Normalize(86.25), ShouldAlmostEqual, 0.5, 1e-9)
		})
	})

	Convey("Given a zero-width window", t, func() {
		Convey("Then a band spec is full only at the point", func() {
			spec := scoring.Spec{Min: 10, Max: 10, Shape: scoring.ToleranceBand}
			So(spec.Normalize(10), ShouldEqual, 1)
			So(spec.Normalize(10.1), ShouldEqual, 0)
		})

		Convey("Then an inverted spec is full at or below the point", func() {
			spec := scoring.Spec{Min: 10, Max: 10, Shape: scoring.ToleranceInverted}
			So(spec.Normalize(9), ShouldEqual, 1)
			So(spec.Normalize(10), ShouldEqual, 1)
			So(spec.Normalize(11), ShouldEqual, 0)
		})
	})
}

func TestSpecValidate(t *testing.T) {
	Convey("Given candidate specs", t, func() {
		Convey("Then min above max is rejected", func() {
			err := scoring.Spec{Min: 10, Max: 5}.Validate()
			So(err, ShouldWrap, scoring.ErrInvalidSpec)
		})

		Convey("Then negative weight is rejected", func() {
			err := scoring.Spec{Min: 0, Max: 5, Weight: -1}.Validate()
			So(err, ShouldWrap, scoring.ErrInvalidSpec)
		})

		Convey("Then an unknown tolerance shape is rejected", func() {
			err := scoring.Spec{Min: 0, Max: 5, Shape: scoring.Tolerance(42)}.Validate()
			So(err, ShouldWrap, scoring.ErrInvalidSpec)
		})

		Convey("Then NewEngine refuses a set containing a bad spec", func() {
			_, err := scoring.NewEngine(map[string]scoring.Spec{
				"ok":  {Min: 0, Max: 5, Weight: 1},
				"bad": {Min: 5, Max: 0, Weight: 1},
			})
			So(err, ShouldWrap, scoring.ErrInvalidSpec)
		})
	})
}

func TestEngineScore(t *testing.T) {
	Convey("Given an engine over two weighted metrics", t, func() {
		engine, err := scoring.NewEngine(map[string]scoring.Spec{
			"hip_turn": {Min: 0, Max: 1, Weight: 2, Shape: scoring.ToleranceBand},
			"head":     {Min: 0, Max: 1, Weight: 1, Shape: scoring.ToleranceBand},
		})
		So(err, ShouldBeNil)

		Convey("When both metrics are present", func() {
			result := engine.Score(map[string]model.Measurement{
				"hip_turn": present(0.8),
				"head":     present(0.4),
			})

			Convey("Then the overall is the weight-normalized rounding", func() {
				// (2*0.8 + 1*0.4) / 3 = 0.666...
				So(result.Overall, ShouldEqual, 67)
				So(result.Label, ShouldEqual, "Good")
				So(result.InsufficientData, ShouldBeFalse)
			})

			Convey("Then the weakest ranking is ascending by quality", func() {
				So(result.Weakest, ShouldResemble, []string{"head", "hip_turn"})
			})
		})

		Convey("When one metric is absent", func() {
			result := engine.Score(map[string]model.Measurement{
				"hip_turn": present(0.8),
				"head":     absent(),
			})

			Convey("Then it drops from numerator and denominator alike", func() {
				So(result.Overall, ShouldEqual, 80)
				So(result.PerMetric, ShouldNotContainKey, "head")
			})

			Convey("Then it scores identically to a missing key", func() {
				other := engine.Score(map[string]model.Measurement{
					"hip_turn": present(0.8),
				})
				So(result.Overall, ShouldEqual, other.Overall)
				So(result.Weakest, ShouldResemble, other.Weakest)
			})
		})

		Convey("When every metric is absent", func() {
			result := engine.Score(map[string]model.Measurement{
				"hip_turn": absent(),
				"head":     absent(),
			})

			Convey("Then the fallback is overall 0 with the flag set", func() {
				So(result.Overall, ShouldEqual, 0)
				So(result.InsufficientData, ShouldBeTrue)
				So(result.Weakest, ShouldBeNil)
			})
		})

		Convey("When a metric has no spec", func() {
			result := engine.Score(map[string]model.Measurement{
				"hip_turn":   present(0.8),
				"mysterious": present(0.1),
			})

			Convey("Then it is ignored entirely", func() {
				So(result.Overall, ShouldEqual, 80)
				So(result.PerMetric, ShouldNotContainKey, "mysterious")
			})
		})
	})

	Convey("Given metrics tied on quality", t, func() {
		engine, err := scoring.NewEngine(map[string]scoring.Spec{
			"bravo":   {Min: 0, Max: 1, Weight: 1, Shape: scoring.ToleranceBand},
			"alpha":   {Min: 0, Max: 1, Weight: 1, Shape: scoring.ToleranceBand},
			"charlie": {Min: 0, Max: 1, Weight: 3, Shape: scoring.ToleranceBand},
		})
		So(err, ShouldBeNil)

		result := engine.Score(map[string]model.Measurement{
			"bravo":   present(0.5),
			"alpha":   present(0.5),
			"charlie": present(0.5),
		})

		Convey("Then ties break by descending weight, then name", func() {
			So(result.Weakest, ShouldResemble, []string{"charlie", "alpha", "bravo"})
		})
	})

	Convey("Given a weakest limit", t, func() {
		engine, err := scoring.NewEngine(map[string]scoring.Spec{
			"a": {Min: 0, Max: 1, Weight: 1, Shape: scoring.ToleranceBand},
			"b": {Min: 0, Max: 1, Weight: 1, Shape: scoring.ToleranceBand},
			"c": {Min: 0, Max: 1, Weight: 1, Shape: scoring.ToleranceBand},
		}, scoring.WithWeakestLimit(2))
		So(err, ShouldBeNil)

		result := engine.Score(map[string]model.Measurement{
			"a": present(0.9),
			"b": present(0.1),
			"c": present(0.5),
		})

		Convey("Then the ranking is truncated after the limit", func() {
			So(result.Weakest, ShouldResemble, []string{"b", "c"})
		})
	})

	Convey("Given extreme measured values", t, func() {
		engine, err := scoring.NewEngine(map[string]scoring.Spec{
			"m": {Min: 0, Max: 10, Weight: 1, Shape: scoring.ToleranceBand},
		})
		So(err, ShouldBeNil)

		Convey("Then the overall stays inside [0,100]", func() {
			for _, v := range []float64{-1e9, -10, 0, 5, 10, 25, 1e9} {
				result := engine.Score(map[string]model.Measurement{"m": present(v)})
				So(result.Overall, ShouldBeBetweenOrEqual, 0, 100)
			}
		})
	})
}

func TestLabel(t *testing.T) {
	Convey("Given overall scores across the buckets", t, func() {
		So(scoring.Label(100), ShouldEqual, "Excellent")
		So(scoring.Label(80), ShouldEqual, "Excellent")
		So(scoring.Label(79), ShouldEqual, "Good")
		So(scoring.Label(60), ShouldEqual, "Good")
		So(scoring.Label(59), ShouldEqual, "Needs Work")
		So(scoring.Label(0), ShouldEqual, "Needs Work")
	})
}
