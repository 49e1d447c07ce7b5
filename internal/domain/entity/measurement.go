package entity

import (
	"time"

	"github.com/google/uuid"
)

// Edge is a pair of landmark indices representing a rigid bone segment.
type Edge [2]int

// Measurement is a user-recorded joint angle on one stored frame. It
// references, but does not own, the pose frame; deleting frames does not
// recompute measurements.
type Measurement struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	VideoID          uuid.UUID
	FrameIndex       int
	FrameTimestampMS int64
	JointIndex       int
	EdgeA            Edge
	EdgeB            Edge
	AngleDegrees     float64
	Label            string
	CreatedAt        time.Time
}

func NewMeasurement(sessionID, videoID uuid.UUID) *Measurement {
	return &Measurement{
		ID:        uuid.New(),
		SessionID: sessionID,
		VideoID:   videoID,
		CreatedAt: time.Now().UTC(),
	}
}
