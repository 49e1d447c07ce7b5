package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"
)

type JobStatus struct {
	VideoID     uuid.UUID          `json:"video_id"`
	Status      entity.VideoStatus `json:"status"`
	ProgressPct float64            `json:"progress_pct"`
	Error       string             `json:"error,omitempty"`
}

// StatusUseCase answers polls. The tracker entry is preferred; if it is gone
// (process restart) the persisted video status is the fallback, with
// progress synthesized as 100 for completed and 0 otherwise.
type StatusUseCase struct {
	videos  port.VideoRepository
	tracker *tracker.Tracker
}

func NewStatusUseCase(videos port.VideoRepository, trk *tracker.Tracker) *StatusUseCase {
	return &StatusUseCase{videos: videos, tracker: trk}
}

func (uc *StatusUseCase) Status(ctx context.Context, videoID uuid.UUID) (*JobStatus, error) {
	if e, ok := uc.tracker.Get(videoID); ok {
		return &JobStatus{
			VideoID:     videoID,
			Status:      e.Status,
			ProgressPct: e.ProgressPct,
			Error:       e.Error,
		}, nil
	}

	video, err := uc.videos.FindByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	progress := 0.0
	if video.Status == entity.StatusCompleted {
		progress = 100.0
	}
	return &JobStatus{
		VideoID:     videoID,
		Status:      video.Status,
		ProgressPct: progress,
		Error:       video.ErrorMessage,
	}, nil
}
