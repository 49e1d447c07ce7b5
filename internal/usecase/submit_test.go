package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"
)

func TestSubmitUploadJob(t *testing.T) {
	videos := newMemVideoRepo()
	trk := tracker.New()
	pub := &capturedPublish{}
	uc := NewSubmitIngestionUseCase(videos, trk, pub, zap.NewNop())

	sessionID := uuid.New()
	video, err := uc.Submit(context.Background(), SubmitRequest{
		SessionID:  sessionID,
		SourceType: entity.SourceUpload,
		FilePath:   "/uploads/deep_squat_attempt.mp4",
		UserEmail:  "athlete@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, video.Status)
	assert.Equal(t, "deep_squat_attempt", video.Title, "upload title defaults to the filename stem")
	assert.Equal(t, sessionID, video.SessionID)

	stored, err := videos.FindByID(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)

	e, ok := trk.Get(video.ID)
	require.True(t, ok, "submission registers a tracker entry")
	assert.Equal(t, entity.StatusPending, e.Status)

	require.Len(t, pub.ingest, 1)
	var msg entity.IngestRequestMessage
	require.NoError(t, json.Unmarshal(pub.ingest[0], &msg))
	assert.Equal(t, video.ID, msg.VideoID)
	assert.Equal(t, entity.SourceUpload, msg.SourceType)
	assert.Equal(t, "/uploads/deep_squat_attempt.mp4", msg.FilePath)
	assert.Equal(t, "athlete@example.com", msg.UserEmail)
}

func TestSubmitYouTubeJobCarriesTrimWindow(t *testing.T) {
	videos := newMemVideoRepo()
	pub := &capturedPublish{}
	uc := NewSubmitIngestionUseCase(videos, tracker.New(), pub, zap.NewNop())

	start := 5.0
	stop := 42.5
	video, err := uc.Submit(context.Background(), SubmitRequest{
		SessionID:  uuid.New(),
		SourceType: entity.SourceYouTube,
		URL:        "https://youtube.com/watch?v=xyz",
		StartS:     &start,
		StopS:      &stop,
	})
	require.NoError(t, err)
	assert.Empty(t, video.Title, "youtube titles come from remote metadata during ingestion")

	require.Len(t, pub.ingest, 1)
	var msg entity.IngestRequestMessage
	require.NoError(t, json.Unmarshal(pub.ingest[0], &msg))
	require.NotNil(t, msg.StartS)
	require.NotNil(t, msg.StopS)
	assert.Equal(t, 5.0, *msg.StartS)
	assert.Equal(t, 42.5, *msg.StopS)
}

func TestSubmitWebcamJobDoesNotEnqueue(t *testing.T) {
	videos := newMemVideoRepo()
	trk := tracker.New()
	pub := &capturedPublish{}
	uc := NewSubmitIngestionUseCase(videos, trk, pub, zap.NewNop())

	video, err := uc.Submit(context.Background(), SubmitRequest{
		SessionID:  uuid.New(),
		SourceType: entity.SourceWebcam,
	})
	require.NoError(t, err)

	assert.Equal(t, "Webcam Recording", video.Title)
	assert.Empty(t, pub.ingest, "webcam jobs are filled by a live session, not the batch queue")

	_, ok := trk.Get(video.ID)
	assert.True(t, ok)
}

func TestSubmitKeepsExplicitTitle(t *testing.T) {
	uc := NewSubmitIngestionUseCase(newMemVideoRepo(), tracker.New(), &capturedPublish{}, zap.NewNop())

	video, err := uc.Submit(context.Background(), SubmitRequest{
		SessionID:  uuid.New(),
		SourceType: entity.SourceUpload,
		FilePath:   "/uploads/raw.mp4",
		Title:      "Week 3 retest",
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 3 retest", video.Title)
}
