package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"
)

func TestStatusPrefersTracker(t *testing.T) {
	videos := newMemVideoRepo()
	trk := tracker.New()
	uc := NewStatusUseCase(videos, trk)

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	require.NoError(t, videos.Create(context.Background(), video))
	trk.Create(video.ID)
	trk.Update(video.ID, entity.StatusProcessing, 35, "")

	st, err := uc.Status(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, st.Status)
	assert.Equal(t, float64(35), st.ProgressPct)
}

func TestStatusFallsBackToCompletedVideo(t *testing.T) {
	videos := newMemVideoRepo()
	uc := NewStatusUseCase(videos, tracker.New())

	// No tracker entry, as after a process restart.
	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.MarkCompleted(42, 7000)
	require.NoError(t, videos.Create(context.Background(), video))

	st, err := uc.Status(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, st.Status)
	assert.Equal(t, float64(100), st.ProgressPct, "completed fallback synthesizes 100%")
}

func TestStatusFallbackNonCompletedIsZero(t *testing.T) {
	videos := newMemVideoRepo()
	uc := NewStatusUseCase(videos, tracker.New())

	video := entity.NewVideo(uuid.New(), entity.SourceUpload)
	video.MarkFailed("detector unavailable")
	require.NoError(t, videos.Create(context.Background(), video))

	st, err := uc.Status(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, st.Status)
	assert.Zero(t, st.ProgressPct)
	assert.Equal(t, "detector unavailable", st.Error)
}

func TestStatusUnknownEverywhere(t *testing.T) {
	uc := NewStatusUseCase(newMemVideoRepo(), tracker.New())

	_, err := uc.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
