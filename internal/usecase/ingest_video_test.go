package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"
)

type memVideoRepo struct {
	mu          sync.Mutex
	videos      map[uuid.UUID]*entity.Video
	savedFrames map[uuid.UUID][]entity.PoseFrame
	completeErr error
}

func newMemVideoRepo() *memVideoRepo {
	return &memVideoRepo{
		videos:      make(map[uuid.UUID]*entity.Video),
		savedFrames: make(map[uuid.UUID][]entity.PoseFrame),
	}
}

func (r *memVideoRepo) Create(_ context.Context, v *entity.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.videos[v.ID] = &cp
	return nil
}

func (r *memVideoRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", id, entity.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (r *memVideoRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Video
	for _, v := range r.videos {
		if v.SessionID == sessionID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memVideoRepo) Update(_ context.Context, v *entity.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.ID]; !ok {
		return fmt.Errorf("video %s: %w", v.ID, entity.ErrNotFound)
	}
	cp := *v
	r.videos[v.ID] = &cp
	return nil
}

func (r *memVideoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return fmt.Errorf("video %s: %w", id, entity.ErrNotFound)
	}
	delete(r.videos, id)
	return nil
}

func (r *memVideoRepo) ClaimPending(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok || v.Status != entity.StatusPending {
		return false, nil
	}
	v.Status = entity.StatusProcessing
	return true, nil
}

func (r *memVideoRepo) CompleteIngestion(_ context.Context, v *entity.Video, frames []entity.PoseFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	cp := *v
	cp.Status = entity.StatusCompleted
	cp.ErrorMessage = ""
	r.videos[v.ID] = &cp
	r.savedFrames[v.ID] = frames
	return nil
}

type fakeExtractor struct {
	frames  []entity.PoseFrame
	err     error
	gotPath string
	gotOpts port.ExtractOptions
}

func (e *fakeExtractor) Extract(_ context.Context, path string, opts port.ExtractOptions) ([]entity.PoseFrame, error) {
	e.gotPath = path
	e.gotOpts = opts
	if e.err != nil {
		return nil, e.err
	}
	return e.frames, nil
}

type fakeDownloader struct {
	result *port.DownloadResult
	err    error
	gotURL string
}

func (d *fakeDownloader) Download(_ context.Context, url string) (*port.DownloadResult, error) {
	d.gotURL = url
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

type capturedPublish struct {
	statuses [][]byte
	dlq      [][]byte
	reasons  []string
	ingest   [][]byte
}

func (c *capturedPublish) PublishStatus(_ context.Context, msg []byte) error {
	c.statuses = append(c.statuses, msg)
	return nil
}

func (c *capturedPublish) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	c.dlq = append(c.dlq, msg)
	c.reasons = append(c.reasons, reason)
	return nil
}

func (c *capturedPublish) PublishIngest(_ context.Context, msg []byte) error {
	c.ingest = append(c.ingest, msg)
	return nil
}

type capturedNotify struct {
	emails []string
	errors []string
}

func (n *capturedNotify) NotifyFailure(_ context.Context, userEmail, _ string, _ string, errorMsg string) error {
	n.emails = append(n.emails, userEmail)
	n.errors = append(n.errors, errorMsg)
	return nil
}

func extractedFrames(n int) []entity.PoseFrame {
	frames := make([]entity.PoseFrame, n)
	for i := range frames {
		frames[i] = entity.PoseFrame{
			FrameIndex:  i,
			TimestampMS: int64(i) * 167,
			Landmarks:   make([]entity.Landmark, entity.LandmarkCount),
		}
	}
	return frames
}

func newIngestFixture(repo *memVideoRepo, extractor *fakeExtractor, downloader *fakeDownloader, pub *capturedPublish, notify *capturedNotify) (*IngestVideoUseCase, *tracker.Tracker) {
	trk := tracker.New()
	var notifier port.FailureNotifier
	if notify != nil {
		notifier = notify
	}
	uc := NewIngestVideoUseCase(
		repo, extractor, downloader, nil,
		trk, pub, pub, notifier,
		zap.NewNop(),
		IngestVideoConfig{TempDir: "/tmp", Stride: 5},
	)
	return uc, trk
}

func TestRunCompletesUploadJob(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{frames: extractedFrames(60)}
	pub := &capturedPublish{}
	uc, trk := newIngestFixture(repo, extractor, &fakeDownloader{}, pub, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.FilePath = "/videos/squat.mp4"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{
		VideoID:    video.ID,
		SourceType: entity.SourceUpload,
	})

	final, err := repo.FindByID(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, final.Status)
	assert.Equal(t, 60, final.FrameCount)
	assert.Equal(t, int64(59*167), final.DurationMS)
	assert.Empty(t, final.ErrorMessage)

	assert.Len(t, repo.savedFrames[video.ID], 60)
	assert.Equal(t, "/videos/squat.mp4", extractor.gotPath)
	assert.Equal(t, 5, extractor.gotOpts.Stride)

	e, ok := trk.Get(video.ID)
	require.True(t, ok)
	assert.Equal(t, entity.StatusCompleted, e.Status)
	assert.Equal(t, float64(100), e.ProgressPct)

	require.NotEmpty(t, pub.statuses, "status transitions are published")
}

func TestRunDownloadsYouTubeSource(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{frames: extractedFrames(10)}
	downloader := &fakeDownloader{result: &port.DownloadResult{
		FilePath: "/downloads/abc123.mp4",
		Title:    "Deep Squat Tutorial",
		Creator:  "MobilityCoach",
	}}
	uc, trk := newIngestFixture(repo, extractor, downloader, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceYouTube)
	video.URL = "https://youtube.com/watch?v=abc123"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{
		VideoID:    video.ID,
		SourceType: entity.SourceYouTube,
		URL:        video.URL,
	})

	assert.Equal(t, video.URL, downloader.gotURL)
	assert.Equal(t, "/downloads/abc123.mp4", extractor.gotPath)

	final, err := repo.FindByID(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, final.Status)
	assert.Equal(t, "Deep Squat Tutorial", final.Title)
	assert.Equal(t, "MobilityCoach", final.Creator)
}

func TestRunKeepsUserProvidedTitle(t *testing.T) {
	repo := newMemVideoRepo()
	downloader := &fakeDownloader{result: &port.DownloadResult{
		FilePath: "/downloads/abc.mp4",
		Title:    "Remote Title",
	}}
	uc, trk := newIngestFixture(repo, &fakeExtractor{frames: extractedFrames(1)}, downloader, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceYouTube)
	video.URL = "https://youtube.com/watch?v=abc"
	video.Title = "My Own Name"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{VideoID: video.ID, SourceType: entity.SourceYouTube, URL: video.URL})

	final, _ := repo.FindByID(context.Background(), video.ID)
	assert.Equal(t, "My Own Name", final.Title, "remote metadata only fills empty fields")
}

func TestRunDropsUnknownVideo(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{}
	uc, _ := newIngestFixture(repo, extractor, &fakeDownloader{}, &capturedPublish{}, nil)

	uc.Run(context.Background(), entity.IngestRequestMessage{VideoID: uuid.New()})

	assert.Empty(t, extractor.gotPath, "no orchestration for unknown ids")
}

func TestRunSkipsAlreadyClaimedVideo(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{frames: extractedFrames(5)}
	uc, trk := newIngestFixture(repo, extractor, &fakeDownloader{}, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.FilePath = "/videos/a.mp4"
	video.Status = entity.StatusProcessing
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{VideoID: video.ID, SourceType: entity.SourceUpload})

	assert.Empty(t, extractor.gotPath, "duplicate dispatch must not run the pipeline")
	final, _ := repo.FindByID(context.Background(), video.ID)
	assert.Equal(t, entity.StatusProcessing, final.Status)
}

func TestRunMarksFailedOnExtractionError(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{err: &entity.SourceUnreadableError{Path: "/videos/bad.mp4", Err: errors.New("no frames decoded")}}
	notify := &capturedNotify{}
	uc, trk := newIngestFixture(repo, extractor, &fakeDownloader{}, &capturedPublish{}, notify)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.FilePath = "/videos/bad.mp4"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{
		VideoID:    video.ID,
		SourceType: entity.SourceUpload,
		UserEmail:  "athlete@example.com",
	})

	final, err := repo.FindByID(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "no frames decoded")

	e, ok := trk.Get(video.ID)
	require.True(t, ok)
	assert.Equal(t, entity.StatusFailed, e.Status)
	assert.Zero(t, e.ProgressPct)

	require.Len(t, notify.emails, 1)
	assert.Equal(t, "athlete@example.com", notify.emails[0])
}

func TestRunFailsOnDownloadError(t *testing.T) {
	repo := newMemVideoRepo()
	downloader := &fakeDownloader{err: &entity.DownloadError{URL: "https://youtube.com/watch?v=gone", Err: errors.New("video unavailable")}}
	extractor := &fakeExtractor{}
	uc, trk := newIngestFixture(repo, extractor, downloader, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceYouTube)
	video.URL = "https://youtube.com/watch?v=gone"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{VideoID: video.ID, SourceType: entity.SourceYouTube, URL: video.URL})

	final, _ := repo.FindByID(context.Background(), video.ID)
	assert.Equal(t, entity.StatusFailed, final.Status)
	assert.Empty(t, extractor.gotPath, "extraction never starts when download fails")
}

func TestRunEmptyExtractionCompletes(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{frames: nil}
	uc, trk := newIngestFixture(repo, extractor, &fakeDownloader{}, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.FilePath = "/videos/no_person.mp4"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{VideoID: video.ID, SourceType: entity.SourceUpload})

	final, _ := repo.FindByID(context.Background(), video.ID)
	assert.Equal(t, entity.StatusCompleted, final.Status, "zero detections is a valid outcome")
	assert.Zero(t, final.FrameCount)
	assert.Zero(t, final.DurationMS)
}

func TestRunFailsWhenPersistFails(t *testing.T) {
	repo := newMemVideoRepo()
	repo.completeErr = errors.New("connection reset")
	uc, trk := newIngestFixture(repo, &fakeExtractor{frames: extractedFrames(3)}, &fakeDownloader{}, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.FilePath = "/videos/a.mp4"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	uc.Run(context.Background(), entity.IngestRequestMessage{VideoID: video.ID, SourceType: entity.SourceUpload})

	final, _ := repo.FindByID(context.Background(), video.ID)
	assert.Equal(t, entity.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "persist frames")
}

func TestExecuteRoutesMalformedMessageToDLQ(t *testing.T) {
	repo := newMemVideoRepo()
	pub := &capturedPublish{}
	uc, _ := newIngestFixture(repo, &fakeExtractor{}, &fakeDownloader{}, pub, nil)

	err := uc.Execute(context.Background(), []byte(`{not json`))
	require.NoError(t, err, "poison messages are parked, not redelivered")

	require.Len(t, pub.dlq, 1)
	assert.Equal(t, `{not json`, string(pub.dlq[0]))
	assert.Contains(t, pub.reasons[0], "unmarshal_error")
}

func TestRunPassesTrimWindowToExtractor(t *testing.T) {
	repo := newMemVideoRepo()
	extractor := &fakeExtractor{frames: extractedFrames(2)}
	uc, trk := newIngestFixture(repo, extractor, &fakeDownloader{}, &capturedPublish{}, nil)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.FilePath = "/videos/clip.mp4"
	require.NoError(t, repo.Create(context.Background(), video))
	trk.Create(video.ID)

	start := 2.5
	stop := 10.0
	uc.Run(context.Background(), entity.IngestRequestMessage{
		VideoID:    video.ID,
		SourceType: entity.SourceUpload,
		StartS:     &start,
		StopS:      &stop,
	})

	require.NotNil(t, extractor.gotOpts.StartS)
	require.NotNil(t, extractor.gotOpts.StopS)
	assert.Equal(t, 2.5, *extractor.gotOpts.StartS)
	assert.Equal(t, 10.0, *extractor.gotOpts.StopS)
}
