// Package extract drives the frame source → pose detector pipeline for one
// video and normalizes the result into storable pose frames.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/metrics"
)

// Pipeline implements port.PoseExtractor.
type Pipeline struct {
	opener   port.FrameSourceOpener
	detector port.PoseDetector
	depth    port.DepthEstimator
	logger   *zap.Logger
}

// New wires a pipeline. depth may be nil when no estimator is configured.
func New(opener port.FrameSourceOpener, detector port.PoseDetector, depth port.DepthEstimator, logger *zap.Logger) *Pipeline {
	return &Pipeline{opener: opener, detector: detector, depth: depth, logger: logger}
}

// Extract decodes the video in [StartS, StopS] at the given stride and runs
// pose detection on every selected frame. Frames with no detection are
// dropped; survivors are renumbered 0..k-1 in emission order and keep the
// source timestamps. An empty result is a valid outcome, not an error.
func (p *Pipeline) Extract(ctx context.Context, videoPath string, opts port.ExtractOptions) ([]entity.PoseFrame, error) {
	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}

	src, err := p.opener.Open(videoPath, port.SourceOptions{
		StartS: opts.StartS,
		StopS:  opts.StopS,
		Stride: stride,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sess, err := p.detector.NewSession(ctx)
	if err != nil {
		var initErr *entity.DetectorInitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &entity.DetectorInitError{Err: err}
	}
	defer sess.Close()

	enhance := p.depth != nil && p.depth.Available()

	var frames []entity.PoseFrame
	for {
		raw, err := src.Next()
		if errors.Is(err, port.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}

		landmarks, ok, err := sess.Detect(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("detect frame %d: %w", raw.Index, err)
		}
		if !ok {
			continue
		}

		if enhance {
			landmarks = p.enhanceDepth(ctx, raw, landmarks)
		}

		frames = append(frames, entity.PoseFrame{
			FrameIndex:  len(frames),
			TimestampMS: raw.TimestampMS,
			Landmarks:   landmarks,
		})
	}

	metrics.FramesExtractedTotal.Add(float64(len(frames)))
	p.logger.Info("pose extraction finished",
		zap.String("video_path", videoPath),
		zap.Int("frame_count", len(frames)),
		zap.Bool("depth_enhanced", enhance),
	)

	return frames, nil
}

// enhanceDepth replaces landmark z values with depth-estimator output. Any
// estimator failure degrades to the original landmarks rather than failing
// the job.
func (p *Pipeline) enhanceDepth(ctx context.Context, raw *port.RawFrame, landmarks []entity.Landmark) []entity.Landmark {
	depths, err := p.depth.SampleDepths(ctx, raw, landmarks)
	if err != nil {
		p.logger.Warn("depth estimation failed, keeping detector z",
			zap.Int("frame_index", raw.Index),
			zap.Error(err),
		)
		return landmarks
	}
	enhanced, err := ApplyDepth(landmarks, depths)
	if err != nil {
		p.logger.Warn("depth enhancement skipped", zap.Error(err))
		return landmarks
	}
	return enhanced
}
