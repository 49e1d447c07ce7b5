package entity

import "github.com/google/uuid"

// IngestRequestMessage is the inbound submission message on the pose.ingest
// queue. One message dispatches exactly one orchestration for its video id.
type IngestRequestMessage struct {
	VideoID    uuid.UUID  `json:"video_id"`
	SourceType SourceType `json:"source_type"`
	URL        string     `json:"url,omitempty"`
	FilePath   string     `json:"file_path,omitempty"`
	StartS     *float64   `json:"start_s,omitempty"`
	StopS      *float64   `json:"stop_s,omitempty"`
	UserEmail  string     `json:"user_email,omitempty"`
}

// JobStatusMessage is the outbound event published to pose.status on every
// job status transition.
type JobStatusMessage struct {
	VideoID      uuid.UUID   `json:"video_id"`
	Status       VideoStatus `json:"status"`
	ProgressPct  float64     `json:"progress_pct"`
	FrameCount   int         `json:"frame_count,omitempty"`
	DurationMS   int64       `json:"duration_ms,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
