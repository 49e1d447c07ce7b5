// Package video implements the frame source on top of OpenCV (gocv).
package video

import (
	"errors"
	"math"

	"gocv.io/x/gocv"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

const fallbackFPS = 30.0

// Opener implements port.FrameSourceOpener for local video files.
type Opener struct{}

func NewOpener() *Opener { return &Opener{} }

func (o *Opener) Open(path string, opts port.SourceOptions) (port.FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, &entity.SourceUnreadableError{Path: path, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &entity.SourceUnreadableError{Path: path, Err: errors.New("capture not opened")}
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || math.IsNaN(fps) {
		fps = fallbackFPS
	}

	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}

	s := &source{
		path:    path,
		capture: capture,
		img:     gocv.NewMat(),
		fps:     fps,
		stride:  stride,
	}

	// Seek instead of per-frame skipping; decoding from zero would make
	// windowed extraction linear in the skipped prefix.
	if opts.StartS != nil && *opts.StartS > 0 {
		startFrame := int(*opts.StartS * fps)
		capture.Set(gocv.VideoCapturePosFrames, float64(startFrame))
		s.nextIndex = startFrame
	}
	if opts.StopS != nil {
		stopMS := int64(*opts.StopS * 1000)
		s.stopMS = &stopMS
	}

	return s, nil
}

// source is a lazy, non-restartable frame sequence over one capture handle.
type source struct {
	path      string
	capture   *gocv.VideoCapture
	img       gocv.Mat
	fps       float64
	stride    int
	nextIndex int
	stopMS    *int64
	decoded   bool
	done      bool
}

func (s *source) FPS() float64 { return s.fps }

// Next decodes forward to the next frame whose raw index is a multiple of
// the stride. Timestamps are derived from the raw index, so they stay
// monotonic across skipped frames.
func (s *source) Next() (*port.RawFrame, error) {
	if s.done {
		return nil, port.ErrEndOfStream
	}

	for {
		if ok := s.capture.Read(&s.img); !ok {
			s.done = true
			if !s.decoded {
				// A file that yields zero frames is corrupt, not empty.
				return nil, &entity.SourceUnreadableError{Path: s.path, Err: errors.New("no frames decoded")}
			}
			return nil, port.ErrEndOfStream
		}
		s.decoded = true

		idx := s.nextIndex
		s.nextIndex++

		timestampMS := int64(math.Round(1000 * float64(idx) / s.fps))
		if s.stopMS != nil && timestampMS > *s.stopMS {
			s.done = true
			return nil, port.ErrEndOfStream
		}
		if idx%s.stride != 0 || s.img.Empty() {
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.img)
		if err != nil {
			return nil, &entity.SourceUnreadableError{Path: s.path, Err: err}
		}
		jpeg := make([]byte, len(buf.GetBytes()))
		copy(jpeg, buf.GetBytes())
		buf.Close()

		return &port.RawFrame{
			Index:       idx,
			TimestampMS: timestampMS,
			Width:       s.img.Cols(),
			Height:      s.img.Rows(),
			JPEG:        jpeg,
		}, nil
	}
}

func (s *source) Close() error {
	s.img.Close()
	return s.capture.Close()
}
