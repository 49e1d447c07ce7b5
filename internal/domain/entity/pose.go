package entity

import "github.com/google/uuid"

// LandmarkCount is the fixed number of body landmarks the detector reports
// per frame. The index→joint mapping follows the MediaPipe pose topology
// (11 = left shoulder, 23 = left hip, ...).
const LandmarkCount = 33

// Landmark is one detected body point. X and Y are normalized to [0,1]
// relative to the image; Z is relative depth (more negative = closer to the
// camera when depth-enhanced); Visibility is the detector's confidence in
// [0,1] that the point is observed.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// PoseFrame is one timestamped set of landmarks for a video. Within a video,
// FrameIndex is strictly increasing, TimestampMS non-decreasing, and
// (video_id, frame_index) unique. Immutable once persisted.
type PoseFrame struct {
	VideoID     uuid.UUID  `json:"video_id"`
	FrameIndex  int        `json:"frame_index"`
	TimestampMS int64      `json:"timestamp_ms"`
	Landmarks   []Landmark `json:"landmarks"`
}
