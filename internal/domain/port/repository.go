package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

type VideoRepository interface {
	Create(ctx context.Context, video *entity.Video) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Video, error)
	Update(ctx context.Context, video *entity.Video) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ClaimPending transitions the video from pending to processing and
	// reports whether this call won the transition. The pending→processing
	// edge is the one-shot trigger that guarantees at most one orchestration
	// per job id.
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)

	// CompleteIngestion persists all extracted frames and the completed job
	// fields in a single transaction.
	CompleteIngestion(ctx context.Context, video *entity.Video, frames []entity.PoseFrame) error
}

// PoseQuery bounds a pose listing. Frames are filtered by timestamp range
// in storage and ordered by frame index; stride decimation happens in
// memory on the filtered result, not here.
type PoseQuery struct {
	StartMS *int64
	StopMS  *int64
}

type PoseFrameRepository interface {
	// BulkInsert persists one flush batch in a single transaction, tagging
	// every frame with videoID.
	BulkInsert(ctx context.Context, videoID uuid.UUID, frames []entity.PoseFrame) error
	ListByVideo(ctx context.Context, videoID uuid.UUID, q PoseQuery) ([]entity.PoseFrame, error)
	FindByIndex(ctx context.Context, videoID uuid.UUID, frameIndex int) (*entity.PoseFrame, error)

	// FinishRecording sets the job's frame count and duration and marks it
	// completed, in the same transaction as the final flush.
	FinishRecording(ctx context.Context, videoID uuid.UUID, frames []entity.PoseFrame, frameCount int, durationMS int64) error

	// AppendRecording flushes frames and increments (rather than overwrites)
	// the job's persisted frame count, marking it completed. Used on abrupt
	// disconnect.
	AppendRecording(ctx context.Context, videoID uuid.UUID, frames []entity.PoseFrame) error
}

type MeasurementRepository interface {
	Create(ctx context.Context, m *entity.Measurement) error
	List(ctx context.Context, sessionID, videoID *uuid.UUID) ([]*entity.Measurement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
}
