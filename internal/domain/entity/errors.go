package entity

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an absent job, frame, session or measurement. It is
// returned synchronously to callers and is never fatal to a running job.
var ErrNotFound = errors.New("not found")

// ErrEdgesNotAdjacent reports an angle request whose two edges share zero or
// two landmark indices instead of exactly one.
var ErrEdgesNotAdjacent = errors.New("edges must share exactly one landmark")

// SourceUnreadableError reports a video file that cannot be opened or
// decoded. Fatal to a batch job; there is no partial recovery.
type SourceUnreadableError struct {
	Path string
	Err  error
}

func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("video source unreadable: %s: %v", e.Path, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error { return e.Err }

// DownloadError reports a failed remote video fetch. Fatal to a batch job.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DetectorInitError reports a failed pose-detector session setup (model or
// asset load). Fatal to the whole job, not per-frame.
type DetectorInitError struct {
	Err error
}

func (e *DetectorInitError) Error() string {
	return fmt.Sprintf("pose detector init failed: %v", e.Err)
}

func (e *DetectorInitError) Unwrap() error { return e.Err }
