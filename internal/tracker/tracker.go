// Package tracker keeps an in-memory, process-lifetime shadow of job
// progress for cheap polling. Entries are advisory: they vanish on restart
// and callers fall back to the persisted video status.
package tracker

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

// Entry is the progress shadow for one job.
type Entry struct {
	Status      entity.VideoStatus
	ProgressPct float64
	Error       string
}

type slot struct {
	mu    sync.Mutex
	entry Entry
}

// Tracker is a concurrent map of job id → Entry with per-entry locking, so
// updates for one job never block reads of another. Concurrent updates for
// the same id are last-write-wins.
type Tracker struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*slot
}

func New() *Tracker {
	return &Tracker{slots: make(map[uuid.UUID]*slot)}
}

// Create registers a pending entry at 0% for the job.
func (t *Tracker) Create(videoID uuid.UUID) Entry {
	e := Entry{Status: entity.StatusPending, ProgressPct: 0}

	t.mu.Lock()
	s, ok := t.slots[videoID]
	if !ok {
		s = &slot{}
		t.slots[videoID] = s
	}
	t.mu.Unlock()

	s.mu.Lock()
	s.entry = e
	s.mu.Unlock()
	return e
}

// Get returns the entry for the job, reporting absence rather than
// fabricating a default.
func (t *Tracker) Get(videoID uuid.UUID) (Entry, bool) {
	t.mu.RLock()
	s, ok := t.slots[videoID]
	t.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	s.mu.Lock()
	e := s.entry
	s.mu.Unlock()
	return e, true
}

// Update overwrites the entry in place. No history is kept; unknown ids are
// a no-op.
func (t *Tracker) Update(videoID uuid.UUID, status entity.VideoStatus, progressPct float64, errMsg string) {
	t.mu.RLock()
	s, ok := t.slots[videoID]
	t.mu.RUnlock()
	if !ok {
		return
	}

	s.mu.Lock()
	s.entry = Entry{Status: status, ProgressPct: progressPct, Error: errMsg}
	s.mu.Unlock()
}

// Delete drops the entry. Used by tests and by callers retiring finished
// jobs; absent ids are a no-op.
func (t *Tracker) Delete(videoID uuid.UUID) {
	t.mu.Lock()
	delete(t.slots, videoID)
	t.mu.Unlock()
}
