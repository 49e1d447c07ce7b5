package pose

import (
	"fmt"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

// Hip landmark indices, used as the depth reference plane.
const (
	LeftHip  = 23
	RightHip = 24
)

// JointNames maps landmark indices to anatomical names.
var JointNames = map[int]string{
	0:  "Nose",
	1:  "Left Eye Inner",
	2:  "Left Eye",
	3:  "Left Eye Outer",
	4:  "Right Eye Inner",
	5:  "Right Eye",
	6:  "Right Eye Outer",
	7:  "Left Ear",
	8:  "Right Ear",
	9:  "Mouth Left",
	10: "Mouth Right",
	11: "Left Shoulder",
	12: "Right Shoulder",
	13: "Left Elbow",
	14: "Right Elbow",
	15: "Left Wrist",
	16: "Right Wrist",
	17: "Left Pinky",
	18: "Right Pinky",
	19: "Left Index",
	20: "Right Index",
	21: "Left Thumb",
	22: "Right Thumb",
	23: "Left Hip",
	24: "Right Hip",
	25: "Left Knee",
	26: "Right Knee",
	27: "Left Ankle",
	28: "Right Ankle",
	29: "Left Heel",
	30: "Right Heel",
	31: "Left Foot Index",
	32: "Right Foot Index",
}

// JointName returns the anatomical name for a landmark index, or a numeric
// placeholder for unknown indices.
func JointName(idx int) string {
	if name, ok := JointNames[idx]; ok {
		return name
	}
	return fmt.Sprintf("Joint %d", idx)
}

// EdgeName renders an edge as "A - B" for display.
func EdgeName(e entity.Edge) string {
	return JointName(e[0]) + " - " + JointName(e[1])
}
