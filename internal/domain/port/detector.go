package port

import (
	"context"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

// DetectorSession is one stateful pose-detection run. Detect must be called
// with non-decreasing timestamps; the underlying model is temporal. A frame
// with no detection returns ok=false and no error.
type DetectorSession interface {
	Detect(ctx context.Context, frame *RawFrame) (landmarks []entity.Landmark, ok bool, err error)
	Close() error
}

// PoseDetector creates detection sessions. NewSession performs the one-time
// model/asset setup for a pipeline run; its failure is fatal to the whole
// job and is reported as *entity.DetectorInitError.
type PoseDetector interface {
	NewSession(ctx context.Context) (DetectorSession, error)
}

// DepthEstimator samples monocular depth estimates at normalized (x, y)
// image points. Availability is decided once at startup; when unavailable
// the extraction pipeline proceeds without depth enhancement.
type DepthEstimator interface {
	Available() bool
	// SampleDepths returns one depth value per input point, in order. Higher
	// values mean closer to the camera (disparity convention).
	SampleDepths(ctx context.Context, frame *RawFrame, points []entity.Landmark) ([]float64, error)
}
