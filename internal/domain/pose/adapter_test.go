package pose_test

import (
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jcortez/swinglab/internal/domain/model"
	"github.com/jcortez/swinglab/internal/domain/pose"
)

func TestRawLandmarkDecoding(t *testing.T) {
	Convey("Given landmark JSON from different detector versions", t, func() {
		Convey("Then the name/score shape decodes", func() {
			var l pose.RawLandmark
			err := json.Unmarshal([]byte(`{"name":"left_wrist","x":10,"y":20,"score":0.9}`), &l)
			So(err, ShouldBeNil)
			So(l.Name, ShouldEqual, "left_wrist")
			So(l.Confidence, ShouldEqual, 0.9)
		})

		Convey("Then the part/confidence shape decodes", func() {
			var l pose.RawLandmark
			err := json.Unmarshal([]byte(`{"part":"leftWrist","x":10,"y":20,"confidence":0.7}`), &l)
			So(err, ShouldBeNil)
			So(l.Name, ShouldEqual, "leftWrist")
			So(l.Confidence, ShouldEqual, 0.7)
		})

		Convey("Then the id/visibility shape decodes", func() {
			var l pose.RawLandmark
			err := json.Unmarshal([]byte(`{"id":9,"x":10,"y":20,"visibility":0.55}`), &l)
			So(err, ShouldBeNil)
			So(l.Name, ShouldEqual, "9")
			So(l.Confidence, ShouldEqual, 0.55)
		})

		Convey("Then absent confidence decodes to zero, not full", func() {
			var l pose.RawLandmark
			err := json.Unmarshal([]byte(`{"name":"nose","x":1,"y":2}`), &l)
			So(err, ShouldBeNil)
			So(l.Confidence, ShouldEqual, 0)
		})
	})
}

func TestRawLandmarkEncoding(t *testing.T) {
	Convey("Given a landmark marshalled for the wire", t, func() {
		data, err := json.Marshal(pose.RawLandmark{Name: "left_wrist", X: 10, Y: 20, Confidence: 0.9})
		So(err, ShouldBeNil)

		Convey("Then it emits the lowercase vocabulary", func() {
			So(string(data), ShouldEqual, `{"name":"left_wrist","x":10,"y":20,"confidence":0.9}`)
		})

		Convey("Then the output decodes back through the wire decoder", func() {
			var back pose.RawLandmark
			So(json.Unmarshal(data, &back), ShouldBeNil)
			So(back.Name, ShouldEqual, "left_wrist")
			So(back.Confidence, ShouldEqual, 0.9)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given frames with varied landmark vocabularies", t, func() {
		frames := []pose.RawFrame{
			{
				FrameIndex:  0,
				TimestampMs: 0,
				People: []pose.RawPerson{{
					Score: 0.9,
					Landmarks: []pose.RawLandmark{
						{Name: "left_wrist", X: 1, Y: 2, Confidence: 0.8},
						{Name: "rightWrist", X: 3, Y: 4, Confidence: 0.8},
						{Name: "LEFT SHOULDER", X: 5, Y: 6, Confidence: 0.8},
						{Name: "right-shoulder", X: 7, Y: 8, Confidence: 0.8},
						{Name: "0", X: 9, Y: 10, Confidence: 0.8},
						{Name: "third_eye", X: 0, Y: 0, Confidence: 0.99},
					},
				}},
			},
		}

		out := pose.Normalize(frames)
		So(out, ShouldHaveLength, 1)

		Convey("Then every known spelling maps onto the canonical id", func() {
			kp := out[0].Keypoints
			So(kp, ShouldContainKey, model.LeftWrist)
			So(kp, ShouldContainKey, model.RightWrist)
			So(kp, ShouldContainKey, model.LeftShoulder)
			So(kp, ShouldContainKey, model.RightShoulder)
			So(kp, ShouldContainKey, model.Nose)
		})

		Convey("Then names outside the vocabulary are dropped", func() {
			So(out[0].Keypoints, ShouldHaveLength, 5)
		})
	})

	Convey("Given a frame with multiple people", t, func() {
		frames := []pose.RawFrame{{
			FrameIndex: 7,
			People: []pose.RawPerson{
				{Score: 0.4, Landmarks: []pose.RawLandmark{{Name: "nose", X: 1, Y: 1, Confidence: 0.5}}},
				{Score: 0.95, Landmarks: []pose.RawLandmark{{Name: "nose", X: 9, Y: 9, Confidence: 0.9}}},
			},
		}}

		out := pose.Normalize(frames)

		Convey("Then only the highest-scoring person survives", func() {
			kp := out[0].Keypoints[model.Nose]
			So(kp.X, ShouldEqual, 9)
			So(kp.Confidence, ShouldEqual, 0.9)
		})
	})

	Convey("Given a frame with zero people", t, func() {
		out := pose.Normalize([]pose.RawFrame{{FrameIndex: 3, TimestampMs: 100}})

		Convey("Then the frame yields an empty keypoint set, not an error", func() {
			So(out, ShouldHaveLength, 1)
			So(out[0].FrameIndex, ShouldEqual, 3)
			So(out[0].Keypoints, ShouldBeEmpty)
		})
	})

	Convey("Given a duplicated landmark name", t, func() {
		frames := []pose.RawFrame{{
			People: []pose.RawPerson{{
				Score: 0.9,
				Landmarks: []pose.RawLandmark{
					{Name: "nose", X: 1, Y: 1, Confidence: 0.3},
					{Name: "nose", X: 2, Y: 2, Confidence: 0.8},
					{Name: "nose", X: 3, Y: 3, Confidence: 0.5},
				},
			}},
		}}

		out := pose.Normalize(frames)

		Convey("Then the most confident detection wins", func() {
			kp := out[0].Keypoints[model.Nose]
			So(kp.X, ShouldEqual, 2)
			So(kp.Confidence, ShouldEqual, 0.8)
		})
	})
}

func TestStaticDetector(t *testing.T) {
	Convey("Given a static detector seeded with frames", t, func() {
		seed := []pose.RawFrame{{FrameIndex: 0}, {FrameIndex: 1}}
		d := pose.NewStaticDetector(seed)
		ctx := context.Background()

		So(d.Init(ctx), ShouldBeNil)

		Convey("Then it replays the seeded frames", func() {
			frames, err := d.Detect(ctx, "any-ref")
			So(err, ShouldBeNil)
			So(frames, ShouldHaveLength, 2)
		})

		Convey("When closed", func() {
			So(d.Close(), ShouldBeNil)

			Convey("Then detection is refused", func() {
				_, err := d.Detect(ctx, "any-ref")
				So(err, ShouldWrap, pose.ErrDetectorClosed)
			})
		})
	})
}
