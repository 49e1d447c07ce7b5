// Package pose holds the pure joint-angle geometry used for exercise-form
// analysis.
package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

// angleEpsilon guards against zero-length bone vectors (degenerate frames
// with duplicate landmark coordinates).
const angleEpsilon = 1e-10

// SharedJoint returns the single landmark index present in both edges, or
// entity.ErrEdgesNotAdjacent when the edges share zero or two indices.
func SharedJoint(edgeA, edgeB entity.Edge) (int, error) {
	var shared []int
	for _, a := range edgeA {
		if a == edgeB[0] || a == edgeB[1] {
			shared = append(shared, a)
		}
	}
	if len(shared) != 1 {
		return 0, fmt.Errorf("edges %v and %v: %w", edgeA, edgeB, entity.ErrEdgesNotAdjacent)
	}
	return shared[0], nil
}

// Angle computes the angle in degrees between two bone edges at their shared
// joint, using the landmarks' 3-D positions. The result is always in
// [0, 180] and is symmetric in the two edges.
func Angle(landmarks []entity.Landmark, edgeA, edgeB entity.Edge) (jointIndex int, degrees float64, err error) {
	joint, err := SharedJoint(edgeA, edgeB)
	if err != nil {
		return 0, 0, err
	}

	for _, idx := range []int{edgeA[0], edgeA[1], edgeB[0], edgeB[1]} {
		if idx < 0 || idx >= len(landmarks) {
			return 0, 0, fmt.Errorf("landmark index %d out of range: %w", idx, entity.ErrNotFound)
		}
	}

	outerA := other(edgeA, joint)
	outerB := other(edgeB, joint)

	j := vec(landmarks[joint])
	va := r3.Sub(vec(landmarks[outerA]), j)
	vb := r3.Sub(vec(landmarks[outerB]), j)

	cos := r3.Dot(va, vb) / (r3.Norm(va)*r3.Norm(vb) + angleEpsilon)
	cos = math.Max(-1, math.Min(1, cos))

	return joint, math.Acos(cos) * 180 / math.Pi, nil
}

func other(e entity.Edge, joint int) int {
	if e[1] == joint {
		return e[0]
	}
	return e[1]
}

func vec(lm entity.Landmark) r3.Vec {
	return r3.Vec{X: lm.X, Y: lm.Y, Z: lm.Z}
}
