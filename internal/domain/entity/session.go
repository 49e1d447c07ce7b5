package entity

import (
	"time"

	"github.com/google/uuid"
)

// User owns sessions. Deleting a user cascades to sessions, videos, frames
// and measurements.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
}

// Session groups videos and measurements for one analysis sitting.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSession(userID uuid.UUID, title string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
