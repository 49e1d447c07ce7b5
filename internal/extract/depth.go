package extract

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/pose"
)

// depthScaleNum sizes the z spread: scale = depthScaleNum / (stddev + eps).
const (
	depthScaleNum = 0.15
	depthEpsilon  = 1e-6
)

// ApplyDepth rewrites landmark z values from sampled depth-map values. The
// mean depth at the two hips is the reference plane; landmarks closer to the
// camera than the hips get negative z (the estimator reports disparity:
// higher = closer). Landmarks with zero visibility keep their original z.
// Resulting z is clamped to [-1, 1].
func ApplyDepth(landmarks []entity.Landmark, depths []float64) ([]entity.Landmark, error) {
	if len(depths) != len(landmarks) {
		return nil, fmt.Errorf("depth sample count %d does not match landmark count %d", len(depths), len(landmarks))
	}
	if len(landmarks) <= pose.RightHip {
		return nil, fmt.Errorf("landmark set too small for hip reference: %d", len(landmarks))
	}

	hipDepth := (depths[pose.LeftHip] + depths[pose.RightHip]) / 2
	scale := depthScaleNum / (stat.PopStdDev(depths, nil) + depthEpsilon)

	out := make([]entity.Landmark, len(landmarks))
	for i, lm := range landmarks {
		if lm.Visibility > 0 {
			z := (hipDepth - depths[i]) * scale
			if z > 1 {
				z = 1
			} else if z < -1 {
				z = -1
			}
			lm.Z = z
		}
		out[i] = lm
	}
	return out, nil
}
