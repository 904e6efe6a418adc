package pose

import "errors"

// Sentinel kinds for pose detection errors.
var (
	// ErrPoseDetection reports that the external model call itself failed.
	// A frame with no detected person is not an error.
	ErrPoseDetection = errors.New("pose detection failed")

	// ErrDetectorClosed reports use of a detector after Close.
	ErrDetectorClosed = errors.New("pose detector closed")
)
