package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"

	"github.com/google/uuid"
)

// SubmitRequest creates one ingestion job. For uploads FilePath is the
// stored file (local path or media-store object key); for youtube imports
// URL is required. Webcam jobs are created pending and filled by a live
// stream session instead of the batch pipeline.
type SubmitRequest struct {
	SessionID  uuid.UUID
	SourceType entity.SourceType
	URL        string
	FilePath   string
	Title      string
	StartS     *float64
	StopS      *float64
	UserEmail  string
}

// SubmitIngestionUseCase creates the pending job record and tracker entry,
// then enqueues the work. It returns as soon as both exist; extraction runs
// asynchronously.
type SubmitIngestionUseCase struct {
	videos  port.VideoRepository
	tracker *tracker.Tracker
	queue   port.IngestPublisher
	logger  *zap.Logger
}

func NewSubmitIngestionUseCase(videos port.VideoRepository, trk *tracker.Tracker, queue port.IngestPublisher, logger *zap.Logger) *SubmitIngestionUseCase {
	return &SubmitIngestionUseCase{videos: videos, tracker: trk, queue: queue, logger: logger}
}

func (uc *SubmitIngestionUseCase) Submit(ctx context.Context, req SubmitRequest) (*entity.Video, error) {
	video := entity.NewVideo(req.SessionID, req.SourceType)
	video.URL = req.URL
	video.FilePath = req.FilePath
	video.Title = req.Title

	if video.Title == "" {
		switch req.SourceType {
		case entity.SourceUpload:
			base := filepath.Base(req.FilePath)
			video.Title = strings.TrimSuffix(base, filepath.Ext(base))
		case entity.SourceWebcam:
			video.Title = "Webcam Recording"
		}
	}

	if err := uc.videos.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video record: %w", err)
	}
	uc.tracker.Create(video.ID)

	// Webcam jobs wait for their live session; nothing to enqueue.
	if req.SourceType == entity.SourceWebcam {
		return video, nil
	}

	msg := entity.IngestRequestMessage{
		VideoID:    video.ID,
		SourceType: req.SourceType,
		URL:        req.URL,
		FilePath:   req.FilePath,
		StartS:     req.StartS,
		StopS:      req.StopS,
		UserEmail:  req.UserEmail,
	}
	data, _ := json.Marshal(msg)
	if err := uc.queue.PublishIngest(ctx, data); err != nil {
		return nil, fmt.Errorf("enqueue ingest request: %w", err)
	}

	uc.logger.Info("ingestion submitted",
		zap.String("video_id", video.ID.String()),
		zap.String("source_type", string(req.SourceType)),
	)
	return video, nil
}
