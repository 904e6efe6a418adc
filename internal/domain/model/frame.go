// Package model contains domain entities passed between pipeline stages.
package model

// Landmark identifies a tracked body keypoint. The vocabulary follows the
// COCO 17-landmark convention emitted by MoveNet-style detectors.
type Landmark string

// Landmarks tracked by the pipeline.
const (
	Nose          Landmark = "nose"
	LeftEye       Landmark = "left_eye"
	RightEye      Landmark = "right_eye"
	LeftEar       Landmark = "left_ear"
	RightEar      Landmark = "right_ear"
	LeftShoulder  Landmark = "left_shoulder"
	RightShoulder Landmark = "right_shoulder"
	LeftElbow     Landmark = "left_elbow"
	RightElbow    Landmark = "right_elbow"
	LeftWrist     Landmark = "left_wrist"
	RightWrist    Landmark = "right_wrist"
	LeftHip       Landmark = "left_hip"
	RightHip      Landmark = "right_hip"
	LeftKnee      Landmark = "left_knee"
	RightKnee     Landmark = "right_knee"
	LeftAnkle     Landmark = "left_ankle"
	RightAnkle    Landmark = "right_ankle"
)

// AllLandmarks lists the canonical vocabulary in detector index order.
func AllLandmarks() []Landmark {
	return []Landmark{
		Nose, LeftEye, RightEye, LeftEar, RightEar,
		LeftShoulder, RightShoulder, LeftElbow, RightElbow,
		LeftWrist, RightWrist, LeftHip, RightHip,
		LeftKnee, RightKnee, LeftAnkle, RightAnkle,
	}
}

// Keypoint is one landmark's pixel position and detection confidence for a
// single frame.
type Keypoint struct {
	Name       Landmark
	X          float64
	Y          float64
	Confidence float64
}

// FrameKeypoints is the canonical per-frame detector output: at most one
// keypoint per landmark name. A frame with no detected person carries an
// empty keypoint map.
type FrameKeypoints struct {
	FrameIndex  int
	TimestampMs float64
	Keypoints   map[Landmark]Keypoint
}

// Keypoint returns the named keypoint if present.
func (f FrameKeypoints) Keypoint(name Landmark) (Keypoint, bool) {
	kp, ok := f.Keypoints[name]
	return kp, ok
}

// ConfidentKeypoint returns the named keypoint only when its confidence is at
// or above threshold. Points under threshold are treated as absent.
func (f FrameKeypoints) ConfidentKeypoint(name Landmark, threshold float64) (Keypoint, bool) {
	kp, ok := f.Keypoints[name]
	if !ok || kp.Confidence < threshold {
		return Keypoint{}, false
	}
	return kp, true
}
