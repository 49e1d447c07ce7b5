package port

import "errors"

// ErrEndOfStream is returned by FrameSource.Next when the source is
// exhausted. It is the normal termination, not a failure.
var ErrEndOfStream = errors.New("end of frame stream")

// RawFrame is one decoded video frame, JPEG-encoded at the source boundary
// so downstream stages stay decoder-agnostic. Index is the raw decoder frame
// counter, not renumbered.
type RawFrame struct {
	Index       int
	TimestampMS int64
	Width       int
	Height      int
	JPEG        []byte
}

// SourceOptions bound and decimate frame enumeration. Stride selects raw
// indices with Index % Stride == 0; StartS seeks before decoding; StopS
// stops enumeration strictly once timestamps pass it.
type SourceOptions struct {
	StartS *float64
	StopS  *float64
	Stride int
}

// FrameSource is a lazy, finite, non-restartable frame sequence.
type FrameSource interface {
	// Next returns the next selected frame, ErrEndOfStream when exhausted,
	// or a *entity.SourceUnreadableError if the file cannot be decoded.
	Next() (*RawFrame, error)
	// FPS is the source's native frame rate (30.0 when undeterminable).
	FPS() float64
	Close() error
}

// FrameSourceOpener opens a decodable video file as a FrameSource.
type FrameSourceOpener interface {
	Open(path string, opts SourceOptions) (FrameSource, error)
}
