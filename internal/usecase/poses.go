package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

// PoseQueryUseCase reads stored pose data back out.
type PoseQueryUseCase struct {
	videos port.VideoRepository
	frames port.PoseFrameRepository
}

func NewPoseQueryUseCase(videos port.VideoRepository, frames port.PoseFrameRepository) *PoseQueryUseCase {
	return &PoseQueryUseCase{videos: videos, frames: frames}
}

// List returns the video's frames filtered by timestamp range in storage
// (ordered by frame index), then decimated in memory by taking every
// stride-th element of the filtered result.
func (uc *PoseQueryUseCase) List(ctx context.Context, videoID uuid.UUID, startMS, stopMS *int64, stride int) ([]entity.PoseFrame, error) {
	if stride < 1 {
		return nil, fmt.Errorf("stride must be >= 1, got %d", stride)
	}

	if _, err := uc.videos.FindByID(ctx, videoID); err != nil {
		return nil, err
	}

	frames, err := uc.frames.ListByVideo(ctx, videoID, port.PoseQuery{StartMS: startMS, StopMS: stopMS})
	if err != nil {
		return nil, err
	}
	if stride == 1 {
		return frames, nil
	}

	decimated := make([]entity.PoseFrame, 0, (len(frames)+stride-1)/stride)
	for i := 0; i < len(frames); i += stride {
		decimated = append(decimated, frames[i])
	}
	return decimated, nil
}

// GetFrame fetches one stored frame by its persisted frame index.
func (uc *PoseQueryUseCase) GetFrame(ctx context.Context, videoID uuid.UUID, frameIndex int) (*entity.PoseFrame, error) {
	return uc.frames.FindByIndex(ctx, videoID, frameIndex)
}
