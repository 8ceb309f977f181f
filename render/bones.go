package render

import "github.com/LdDl/pose-go/pose"

// Bone is a line between two joints, given by canonical joint ids
type Bone struct {
	A string
	B string
}

var cocoBones = []Bone{
	{"leftAnkle", "leftKnee"},
	{"leftKnee", "leftHip"},
	{"rightAnkle", "rightKnee"},
	{"rightKnee", "rightHip"},
	{"leftHip", "rightHip"},
	{"leftShoulder", "leftHip"},
	{"rightShoulder", "rightHip"},
	{"leftShoulder", "rightShoulder"},
	{"leftShoulder", "leftElbow"},
	{"rightShoulder", "rightElbow"},
	{"leftElbow", "leftWrist"},
	{"rightElbow", "rightWrist"},
	{"leftEye", "rightEye"},
	{"nose", "leftEye"},
	{"nose", "rightEye"},
	{"leftEye", "leftEar"},
	{"rightEye", "rightEar"},
	{"leftEar", "leftShoulder"},
	{"rightEar", "rightShoulder"},
}

var feetBones = []Bone{
	{"leftAnkle", "leftHeel"},
	{"leftHeel", "leftBigToe"},
	{"leftBigToe", "leftSmallToe"},
	{"rightAnkle", "rightHeel"},
	{"rightHeel", "rightBigToe"},
	{"rightBigToe", "rightSmallToe"},
}

var body25Bones = []Bone{
	{"nose", "neck"},
	{"neck", "midHip"},
	{"neck", "leftShoulder"},
	{"neck", "rightShoulder"},
	{"midHip", "leftHip"},
	{"midHip", "rightHip"},
}

// DefaultBones returns the skeleton drawn for a body profile: COCO limbs, plus the neck and
// mid hip for the 25 joint layout and the feet for 25 and 133 joints. Unknown profiles give nil.
func DefaultBones(profile pose.BodyProfile) []Bone {
	switch profile {
	case pose.ProfileBody17:
		return append([]Bone(nil), cocoBones...)
	case pose.ProfileBody25:
		out := make([]Bone, 0, len(cocoBones)+len(body25Bones)+len(feetBones))
		for _, b := range cocoBones {
			// shoulder to hip is drawn through the neck and mid hip instead
			if (b.A == "leftShoulder" && b.B == "leftHip") || (b.A == "rightShoulder" && b.B == "rightHip") {
				continue
			}
			out = append(out, b)
		}
		out = append(out, body25Bones...)
		return append(out, feetBones...)
	case pose.ProfileWholeBody133:
		out := make([]Bone, 0, len(cocoBones)+len(feetBones))
		out = append(out, cocoBones...)
		return append(out, feetBones...)
	default:
		return nil
	}
}

// BonesFrom converts [a, b] pairs. Pairs of any other length are skipped.
func BonesFrom(pairs [][]string) []Bone {
	out := make([]Bone, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		out = append(out, Bone{A: pair[0], B: pair[1]})
	}
	return out
}
