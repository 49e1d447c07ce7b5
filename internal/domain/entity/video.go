package entity

import (
	"time"

	"github.com/google/uuid"
)

type SourceType string

const (
	SourceUpload  SourceType = "upload"
	SourceYouTube SourceType = "youtube"
	SourceWebcam  SourceType = "webcam"
)

type VideoStatus string

// Status is a strict forward-only state machine:
// pending → processing → {completed | failed}. Terminal states are final;
// a retry means submitting a new job.
const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

// Video is one ingestion job for one video source. It exclusively owns its
// pose frames (cascade delete).
type Video struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	SourceType   SourceType
	URL          string
	FilePath     string
	Title        string
	Creator      string
	DurationMS   int64
	FrameCount   int
	Status       VideoStatus
	ErrorMessage string
	CreatedAt    time.Time
}

func NewVideo(sessionID uuid.UUID, source SourceType) *Video {
	return &Video{
		ID:         uuid.New(),
		SessionID:  sessionID,
		SourceType: source,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

func (v *Video) MarkProcessing() {
	v.Status = StatusProcessing
}

func (v *Video) MarkCompleted(frameCount int, durationMS int64) {
	v.Status = StatusCompleted
	v.FrameCount = frameCount
	v.DurationMS = durationMS
	v.ErrorMessage = ""
}

func (v *Video) MarkFailed(errMsg string) {
	v.Status = StatusFailed
	v.ErrorMessage = errMsg
}
