package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

// VideoLibraryUseCase reads and retires stored video records.
type VideoLibraryUseCase struct {
	videos port.VideoRepository
}

func NewVideoLibraryUseCase(videos port.VideoRepository) *VideoLibraryUseCase {
	return &VideoLibraryUseCase{videos: videos}
}

func (uc *VideoLibraryUseCase) Get(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	return uc.videos.FindByID(ctx, id)
}

func (uc *VideoLibraryUseCase) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Video, error) {
	return uc.videos.ListBySession(ctx, sessionID)
}

// Delete removes the video record; its pose frames go with it (cascade).
// Recorded measurements survive, since they reference but do not own frames.
func (uc *VideoLibraryUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.videos.Delete(ctx, id)
}
