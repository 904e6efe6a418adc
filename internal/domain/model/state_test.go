package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jcortez/swinglab/internal/domain/model"
)

func TestStateMachine(t *testing.T) {
	Convey("Given the attempt state machine", t, func() {
		Convey("Then the happy path is legal end to end", func() {
			path := []model.State{
				model.StateDetecting,
				model.StateSegmented,
				model.StateScoring,
				model.StateCardsBuilt,
				model.StateComplete,
			}
			state := model.StateIdle
			for _, next := range path {
				got, err := state.Transition(next)
				So(err, ShouldBeNil)
				state = got
			}
			So(state, ShouldEqual, model.StateComplete)
		})

		Convey("Then detecting may branch to retake or error", func() {
			So(model.StateDetecting.CanTransition(model.StateNeedsRetake), ShouldBeTrue)
			So(model.StateDetecting.CanTransition(model.StateError), ShouldBeTrue)
		})

		Convey("Then scoring may fail to error", func() {
			So(model.StateScoring.CanTransition(model.StateError), ShouldBeTrue)
		})

		Convey("Then skipping stages is rejected", func() {
			_, err := model.StateIdle.Transition(model.StateScoring)
			So(err, ShouldWrap, model.ErrInvalidTransition)

			_, err = model.StateDetecting.Transition(model.StateComplete)
			So(err, ShouldWrap, model.ErrInvalidTransition)
		})

		Convey("Then terminal states allow nothing further", func() {
			for _, s := range []model.State{
				model.StateNeedsRetake,
				model.StateComplete,
				model.StateError,
			} {
				So(s.Terminal(), ShouldBeTrue)
				_, err := s.Transition(model.StateDetecting)
				So(err, ShouldWrap, model.ErrInvalidTransition)
			}
		})

		Convey("Then non-terminal states are not terminal", func() {
			So(model.StateIdle.Terminal(), ShouldBeFalse)
			So(model.StateScoring.Terminal(), ShouldBeFalse)
		})
	})
}
