package tracker

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

func TestCreateRegistersPendingEntry(t *testing.T) {
	trk := New()
	id := uuid.New()

	trk.Create(id)

	e, ok := trk.Get(id)
	assert.True(t, ok)
	assert.Equal(t, entity.StatusPending, e.Status)
	assert.Zero(t, e.ProgressPct)
	assert.Empty(t, e.Error)
}

func TestGetUnknownIDReportsAbsence(t *testing.T) {
	trk := New()

	_, ok := trk.Get(uuid.New())
	assert.False(t, ok, "unknown ids must not fabricate entries")
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	trk := New()
	id := uuid.New()

	trk.Update(id, entity.StatusProcessing, 35, "")

	_, ok := trk.Get(id)
	assert.False(t, ok, "update must not create entries")
}

func TestUpdateOverwritesEntry(t *testing.T) {
	trk := New()
	id := uuid.New()
	trk.Create(id)

	trk.Update(id, entity.StatusProcessing, 35, "")
	trk.Update(id, entity.StatusFailed, 0, "detector unavailable")

	e, ok := trk.Get(id)
	assert.True(t, ok)
	assert.Equal(t, entity.StatusFailed, e.Status)
	assert.Zero(t, e.ProgressPct)
	assert.Equal(t, "detector unavailable", e.Error)
}

func TestDelete(t *testing.T) {
	trk := New()
	id := uuid.New()
	trk.Create(id)

	trk.Delete(id)

	_, ok := trk.Get(id)
	assert.False(t, ok)

	// Deleting again is a no-op.
	trk.Delete(id)
}

func TestConcurrentAccess(t *testing.T) {
	trk := New()
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		ids[i] = uuid.New()
		trk.Create(ids[i])
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id uuid.UUID) {
			defer wg.Done()
			for p := 0; p <= 100; p += 5 {
				trk.Update(id, entity.StatusProcessing, float64(p), "")
			}
		}(id)
		go func(id uuid.UUID) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				trk.Get(id)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		e, ok := trk.Get(id)
		assert.True(t, ok)
		assert.Equal(t, float64(100), e.ProgressPct)
	}
}
