package port

import (
	"context"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

// ExtractOptions configure one batch extraction run.
type ExtractOptions struct {
	StartS *float64
	StopS  *float64
	Stride int
}

// PoseExtractor runs the frame-source → detector pipeline over a whole
// video. Frames with no detection are skipped; surviving frames are
// renumbered 0..k-1 in emission order and keep the source timestamps. An
// empty result is not an error.
type PoseExtractor interface {
	Extract(ctx context.Context, videoPath string, opts ExtractOptions) ([]entity.PoseFrame, error)
}
