package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/metrics"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"
)

// Progress checkpoints reported through the tracker while a batch job runs.
const (
	progressClaimed     = 5
	progressDownloading = 10
	progressMediaReady  = 30
	progressExtracting  = 35
	progressExtracted   = 85
	progressDone        = 100
	defaultFrameStride  = 5
)

// IngestVideoUseCase is the batch ingestion orchestrator: it drives one job
// from pending through media resolution, pose extraction and persistence to
// a terminal status. Any step error is mapped to a persisted failed status;
// nothing propagates back to the submitter.
type IngestVideoUseCase struct {
	videos     port.VideoRepository
	extractor  port.PoseExtractor
	downloader port.VideoDownloader
	media      port.MediaStore
	tracker    *tracker.Tracker
	publisher  port.StatusPublisher
	dlq        port.DLQPublisher
	notifier   port.FailureNotifier
	logger     *zap.Logger
	tempDir    string
	stride     int
}

type IngestVideoConfig struct {
	TempDir string
	Stride  int
}

func NewIngestVideoUseCase(
	videos port.VideoRepository,
	extractor port.PoseExtractor,
	downloader port.VideoDownloader,
	media port.MediaStore,
	trk *tracker.Tracker,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg IngestVideoConfig,
) *IngestVideoUseCase {
	stride := cfg.Stride
	if stride < 1 {
		stride = defaultFrameStride
	}
	return &IngestVideoUseCase{
		videos:     videos,
		extractor:  extractor,
		downloader: downloader,
		media:      media,
		tracker:    trk,
		publisher:  publisher,
		dlq:        dlq,
		notifier:   notifier,
		logger:     logger,
		tempDir:    cfg.TempDir,
		stride:     stride,
	}
}

// Execute is the queue-facing entrypoint: it decodes one submission message
// and runs the orchestration. Undecodable messages go to the DLQ; job
// failures are terminal and recorded on the job, so Execute only returns an
// error for infrastructure faults the consumer should surface.
func (uc *IngestVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	var msg entity.IngestRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal ingest request", zap.Error(err), zap.ByteString("body", rawMsg))
		if uc.dlq != nil {
			_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		}
		return nil
	}
	uc.Run(ctx, msg)
	return nil
}

// Run orchestrates one job end to end. It never returns an error: every
// failure is captured on the job record and mirrored into the tracker.
func (uc *IngestVideoUseCase) Run(ctx context.Context, msg entity.IngestRequestMessage) {
	tr := otel.Tracer("usecase")
	ctx, span := tr.Start(ctx, "IngestVideoUseCase.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("video.id", msg.VideoID.String()),
		attribute.String("video.source_type", string(msg.SourceType)),
	)

	log := uc.logger.With(zap.String("video_id", msg.VideoID.String()))
	start := time.Now()

	video, err := uc.videos.FindByID(ctx, msg.VideoID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			log.Warn("ingest request for unknown video, dropping")
			return
		}
		uc.fail(ctx, msg, log, fmt.Errorf("load video: %w", err))
		return
	}

	claimed, err := uc.videos.ClaimPending(ctx, video.ID)
	if err != nil {
		uc.fail(ctx, msg, log, fmt.Errorf("claim video: %w", err))
		return
	}
	if !claimed {
		log.Warn("video not pending, skipping duplicate dispatch", zap.String("status", string(video.Status)))
		return
	}
	video.MarkProcessing()
	uc.tracker.Update(video.ID, entity.StatusProcessing, progressClaimed, "")
	uc.publishStatus(ctx, video, progressClaimed, log)

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, video, msg, log); err != nil {
		uc.fail(ctx, msg, log, err)
		metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
}

func (uc *IngestVideoUseCase) runPipeline(ctx context.Context, video *entity.Video, msg entity.IngestRequestMessage, log *zap.Logger) error {
	tr := otel.Tracer("usecase")

	ctxResolve, spanResolve := tr.Start(ctx, "resolve_media")
	videoPath, err := uc.resolveMedia(ctxResolve, video, msg, log)
	spanResolve.End()
	if err != nil {
		return err
	}
	uc.tracker.Update(video.ID, entity.StatusProcessing, progressMediaReady, "")

	uc.tracker.Update(video.ID, entity.StatusProcessing, progressExtracting, "")
	exStart := time.Now()
	ctxExtract, spanExtract := tr.Start(ctx, "extract_poses")
	frames, err := uc.extractor.Extract(ctxExtract, videoPath, port.ExtractOptions{
		StartS: msg.StartS,
		StopS:  msg.StopS,
		Stride: uc.stride,
	})
	spanExtract.End()
	if err != nil {
		return err
	}
	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	uc.tracker.Update(video.ID, entity.StatusProcessing, progressExtracted, "")

	var durationMS int64
	if len(frames) > 0 {
		durationMS = frames[len(frames)-1].TimestampMS
	}
	video.MarkCompleted(len(frames), durationMS)

	ctxPersist, spanPersist := tr.Start(ctx, "persist_frames")
	err = uc.videos.CompleteIngestion(ctxPersist, video, frames)
	spanPersist.End()
	if err != nil {
		return fmt.Errorf("persist frames: %w", err)
	}

	uc.tracker.Update(video.ID, entity.StatusCompleted, progressDone, "")
	uc.publishStatus(ctx, video, progressDone, log)

	log.Info("ingestion completed",
		zap.Int("frame_count", video.FrameCount),
		zap.Int64("duration_ms", video.DurationMS),
	)
	return nil
}

// resolveMedia materializes the job's video as a local file: youtube jobs
// are downloaded (remote metadata fills still-empty title/creator), upload
// jobs staged in the media store are fetched, plain local paths pass
// through.
func (uc *IngestVideoUseCase) resolveMedia(ctx context.Context, video *entity.Video, msg entity.IngestRequestMessage, log *zap.Logger) (string, error) {
	if video.SourceType == entity.SourceYouTube && video.URL != "" {
		uc.tracker.Update(video.ID, entity.StatusProcessing, progressDownloading, "")
		dlStart := time.Now()

		res, err := uc.downloader.Download(ctx, video.URL)
		if err != nil {
			return "", err
		}
		metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

		video.FilePath = res.FilePath
		if res.Title != "" && video.Title == "" {
			video.Title = res.Title
		}
		if res.Creator != "" && video.Creator == "" {
			video.Creator = res.Creator
		}
		if err := uc.videos.Update(ctx, video); err != nil {
			return "", fmt.Errorf("save download metadata: %w", err)
		}
		return res.FilePath, nil
	}

	path := video.FilePath
	if path == "" {
		path = msg.FilePath
	}
	if path == "" {
		return "", fmt.Errorf("no video source available for %s", video.ID)
	}

	// Object-store staged uploads are fetched into the work dir; anything
	// already on disk is used as-is.
	if _, statErr := os.Stat(path); statErr == nil || uc.media == nil {
		return path, nil
	}

	workDir := filepath.Join(uc.tempDir, video.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create workdir: %w", err)
	}
	local := filepath.Join(workDir, "input.mp4")
	if err := uc.media.FetchVideo(ctx, path, local); err != nil {
		return "", fmt.Errorf("fetch video object %s: %w", path, err)
	}
	log.Info("fetched staged upload", zap.String("object_key", path))
	return local, nil
}

// fail records a terminal failure: the job is reloaded fresh, marked failed
// with a human-readable message, and the tracker mirrors it.
func (uc *IngestVideoUseCase) fail(ctx context.Context, msg entity.IngestRequestMessage, log *zap.Logger, cause error) {
	log.Error("ingestion failed", zap.Error(cause))

	video, err := uc.videos.FindByID(ctx, msg.VideoID)
	if err == nil {
		video.MarkFailed(cause.Error())
		if uerr := uc.videos.Update(ctx, video); uerr != nil {
			log.Error("failed to persist failed status", zap.Error(uerr))
		}
		uc.publishStatus(ctx, video, 0, log)
	}

	uc.tracker.Update(msg.VideoID, entity.StatusFailed, 0, cause.Error())

	if uc.notifier != nil && msg.UserEmail != "" {
		title := ""
		if video != nil {
			title = video.Title
		}
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, msg.VideoID.String(), title, cause.Error())
	}
}

func (uc *IngestVideoUseCase) publishStatus(ctx context.Context, video *entity.Video, progress float64, log *zap.Logger) {
	if uc.publisher == nil {
		return
	}
	data, _ := json.Marshal(entity.JobStatusMessage{
		VideoID:      video.ID,
		Status:       video.Status,
		ProgressPct:  progress,
		FrameCount:   video.FrameCount,
		DurationMS:   video.DurationMS,
		ErrorMessage: video.ErrorMessage,
	})
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
