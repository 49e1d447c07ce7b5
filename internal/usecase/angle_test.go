package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

type memMeasurementRepo struct {
	items map[uuid.UUID]*entity.Measurement
}

func newMemMeasurementRepo() *memMeasurementRepo {
	return &memMeasurementRepo{items: make(map[uuid.UUID]*entity.Measurement)}
}

func (r *memMeasurementRepo) Create(_ context.Context, m *entity.Measurement) error {
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *memMeasurementRepo) List(_ context.Context, sessionID, videoID *uuid.UUID) ([]*entity.Measurement, error) {
	var out []*entity.Measurement
	for _, m := range r.items {
		if sessionID != nil && m.SessionID != *sessionID {
			continue
		}
		if videoID != nil && m.VideoID != *videoID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMeasurementRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("measurement %s: %w", id, entity.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func kneeFrame(videoID uuid.UUID) entity.PoseFrame {
	lms := make([]entity.Landmark, entity.LandmarkCount)
	for i := range lms {
		lms[i] = entity.Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}
	// A bent left leg: hip above the knee, ankle out to the side.
	lms[23] = entity.Landmark{X: 0, Y: 1, Visibility: 1}
	lms[25] = entity.Landmark{X: 0, Y: 0, Visibility: 1}
	lms[27] = entity.Landmark{X: 1, Y: 0, Visibility: 1}
	return entity.PoseFrame{VideoID: videoID, FrameIndex: 12, TimestampMS: 2004, Landmarks: lms}
}

func TestComputeKneeAngle(t *testing.T) {
	frames := newMemFrameRepo()
	videoID := uuid.New()
	require.NoError(t, frames.BulkInsert(context.Background(), videoID, []entity.PoseFrame{kneeFrame(videoID)}))

	uc := NewAngleUseCase(frames, newMemMeasurementRepo())
	result, err := uc.Compute(context.Background(), videoID, 12, entity.Edge{23, 25}, entity.Edge{25, 27})
	require.NoError(t, err)

	assert.Equal(t, 25, result.JointIndex)
	assert.InDelta(t, 90, result.AngleDegrees, 1e-6)
	assert.Equal(t, "Left Knee", result.JointName)
	assert.Equal(t, "Left Hip - Left Knee", result.EdgeAName)
	assert.Equal(t, "Left Knee - Left Ankle", result.EdgeBName)
}

func TestComputeMissingFrame(t *testing.T) {
	uc := NewAngleUseCase(newMemFrameRepo(), newMemMeasurementRepo())
	_, err := uc.Compute(context.Background(), uuid.New(), 0, entity.Edge{23, 25}, entity.Edge{25, 27})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestComputeNonAdjacentEdges(t *testing.T) {
	frames := newMemFrameRepo()
	videoID := uuid.New()
	require.NoError(t, frames.BulkInsert(context.Background(), videoID, []entity.PoseFrame{kneeFrame(videoID)}))

	uc := NewAngleUseCase(frames, newMemMeasurementRepo())
	_, err := uc.Compute(context.Background(), videoID, 12, entity.Edge{11, 13}, entity.Edge{24, 26})
	assert.ErrorIs(t, err, entity.ErrEdgesNotAdjacent)
}

func TestRecordAndListMeasurements(t *testing.T) {
	measurements := newMemMeasurementRepo()
	uc := NewAngleUseCase(newMemFrameRepo(), measurements)

	sessionID := uuid.New()
	videoID := uuid.New()
	m, err := uc.Record(context.Background(), MeasurementInput{
		SessionID:        sessionID,
		VideoID:          videoID,
		FrameIndex:       12,
		FrameTimestampMS: 2004,
		JointIndex:       25,
		EdgeA:            entity.Edge{23, 25},
		EdgeB:            entity.Edge{25, 27},
		AngleDegrees:     93.5,
		Label:            "left knee at depth",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)

	listed, err := uc.ListMeasurements(context.Background(), &sessionID, &videoID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "left knee at depth", listed[0].Label)
	assert.InDelta(t, 93.5, listed[0].AngleDegrees, 1e-9)

	otherSession := uuid.New()
	empty, err := uc.ListMeasurements(context.Background(), &otherSession, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, uc.DeleteMeasurement(context.Background(), m.ID))
	err = uc.DeleteMeasurement(context.Background(), m.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
