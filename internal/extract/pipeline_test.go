package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

type fakeSource struct {
	frames []port.RawFrame
	pos    int
	fps    float64
	closed bool
}

func (f *fakeSource) Next() (*port.RawFrame, error) {
	if f.pos >= len(f.frames) {
		return nil, port.ErrEndOfStream
	}
	fr := f.frames[f.pos]
	f.pos++
	return &fr, nil
}

func (f *fakeSource) FPS() float64 { return f.fps }
func (f *fakeSource) Close() error { f.closed = true; return nil }

type fakeOpener struct {
	src     *fakeSource
	err     error
	gotPath string
	gotOpts port.SourceOptions
}

func (f *fakeOpener) Open(path string, opts port.SourceOptions) (port.FrameSource, error) {
	f.gotPath = path
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.src, nil
}

// fakeDetector detects on every frame except the raw indices in skip.
type fakeDetector struct {
	skip    map[int]bool
	initErr error
	closed  bool
}

func (d *fakeDetector) NewSession(context.Context) (port.DetectorSession, error) {
	if d.initErr != nil {
		return nil, d.initErr
	}
	return d, nil
}

func (d *fakeDetector) Detect(_ context.Context, frame *port.RawFrame) ([]entity.Landmark, bool, error) {
	if d.skip[frame.Index] {
		return nil, false, nil
	}
	lms := make([]entity.Landmark, entity.LandmarkCount)
	for i := range lms {
		lms[i] = entity.Landmark{X: 0.5, Y: 0.5, Z: 0.1, Visibility: 0.8}
	}
	return lms, true, nil
}

func (d *fakeDetector) Close() error { d.closed = true; return nil }

type fakeDepth struct {
	available bool
	err       error
	calls     int
}

func (d *fakeDepth) Available() bool { return d.available }

func (d *fakeDepth) SampleDepths(_ context.Context, _ *port.RawFrame, points []entity.Landmark) ([]float64, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	depths := make([]float64, len(points))
	for i := range depths {
		depths[i] = 0.4 + float64(i)*0.01
	}
	return depths, nil
}

func sourceFrames(n int, fps float64) []port.RawFrame {
	frames := make([]port.RawFrame, n)
	for i := range frames {
		frames[i] = port.RawFrame{
			Index:       i * 5,
			TimestampMS: int64(i*5) * 1000 / int64(fps),
			JPEG:        []byte{0xff, 0xd8},
		}
	}
	return frames
}

func TestExtractRenumbersSkippedFrames(t *testing.T) {
	src := &fakeSource{frames: sourceFrames(60, 30), fps: 30}
	opener := &fakeOpener{src: src}
	detector := &fakeDetector{skip: map[int]bool{10: true, 25: true, 150: true}}

	p := New(opener, detector, nil, zap.NewNop())
	frames, err := p.Extract(context.Background(), "/videos/squat.mp4", port.ExtractOptions{Stride: 5})
	require.NoError(t, err)

	// 60 selected frames, raw indices 10, 25 and 150 undetected.
	require.Len(t, frames, 57)
	for i, f := range frames {
		assert.Equal(t, i, f.FrameIndex, "frames are renumbered contiguously")
	}
	// Timestamps stay tied to the source, so gaps remain visible.
	assert.Equal(t, int64(0), frames[0].TimestampMS)
	assert.Equal(t, int64(500), frames[2].TimestampMS, "frame after the skipped index keeps its source timestamp")

	assert.True(t, src.closed)
	assert.True(t, detector.closed)
	assert.Equal(t, "/videos/squat.mp4", opener.gotPath)
	assert.Equal(t, 5, opener.gotOpts.Stride)
}

func TestExtractEmptyResultIsNotAnError(t *testing.T) {
	src := &fakeSource{frames: sourceFrames(10, 30), fps: 30}
	skip := make(map[int]bool)
	for i := 0; i < 10; i++ {
		skip[i*5] = true
	}

	p := New(&fakeOpener{src: src}, &fakeDetector{skip: skip}, nil, zap.NewNop())
	frames, err := p.Extract(context.Background(), "/videos/empty.mp4", port.ExtractOptions{Stride: 5})
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestExtractDetectorInitFailureIsFatal(t *testing.T) {
	src := &fakeSource{frames: sourceFrames(5, 30), fps: 30}
	detector := &fakeDetector{initErr: &entity.DetectorInitError{Err: errors.New("model load failed")}}

	p := New(&fakeOpener{src: src}, detector, nil, zap.NewNop())
	_, err := p.Extract(context.Background(), "/videos/x.mp4", port.ExtractOptions{Stride: 1})

	var initErr *entity.DetectorInitError
	assert.ErrorAs(t, err, &initErr)
}

func TestExtractUnreadableSource(t *testing.T) {
	opener := &fakeOpener{err: &entity.SourceUnreadableError{Path: "/videos/bad.mp4", Err: errors.New("no frames decoded")}}

	p := New(opener, &fakeDetector{}, nil, zap.NewNop())
	_, err := p.Extract(context.Background(), "/videos/bad.mp4", port.ExtractOptions{Stride: 1})

	var srcErr *entity.SourceUnreadableError
	assert.ErrorAs(t, err, &srcErr)
}

func TestExtractDepthEnhancement(t *testing.T) {
	src := &fakeSource{frames: sourceFrames(4, 30), fps: 30}
	depth := &fakeDepth{available: true}

	p := New(&fakeOpener{src: src}, &fakeDetector{}, depth, zap.NewNop())
	frames, err := p.Extract(context.Background(), "/videos/d.mp4", port.ExtractOptions{Stride: 5})
	require.NoError(t, err)

	assert.Equal(t, 4, depth.calls, "every detected frame is depth-sampled")
	for _, f := range frames {
		for _, lm := range f.Landmarks {
			assert.NotEqual(t, 0.1, lm.Z, "z values are rewritten by the estimator")
		}
	}
}

func TestExtractDepthFailureDegradesGracefully(t *testing.T) {
	src := &fakeSource{frames: sourceFrames(3, 30), fps: 30}
	depth := &fakeDepth{available: true, err: errors.New("depth service timeout")}

	p := New(&fakeOpener{src: src}, &fakeDetector{}, depth, zap.NewNop())
	frames, err := p.Extract(context.Background(), "/videos/d.mp4", port.ExtractOptions{Stride: 5})
	require.NoError(t, err, "depth failure must not fail the job")

	require.Len(t, frames, 3)
	for _, f := range frames {
		for _, lm := range f.Landmarks {
			assert.Equal(t, 0.1, lm.Z, "detector z is kept when the estimator fails")
		}
	}
}

func TestExtractUnavailableDepthIsNeverCalled(t *testing.T) {
	src := &fakeSource{frames: sourceFrames(3, 30), fps: 30}
	depth := &fakeDepth{available: false}

	p := New(&fakeOpener{src: src}, &fakeDetector{}, depth, zap.NewNop())
	_, err := p.Extract(context.Background(), "/videos/d.mp4", port.ExtractOptions{Stride: 5})
	require.NoError(t, err)
	assert.Zero(t, depth.calls)
}
