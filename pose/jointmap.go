package pose

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// BodyProfile names a backend joint layout
type BodyProfile string

const (
	ProfileBody17       BodyProfile = "vitpose_body_17"
	ProfileBody25       BodyProfile = "dwpose_body_25"
	ProfileWholeBody133 BodyProfile = "vitpose_wholebody_133"
)

// ParseBodyProfile validates a profile name
func ParseBodyProfile(s string) (BodyProfile, error) {
	switch BodyProfile(s) {
	case ProfileBody17, ProfileBody25, ProfileWholeBody133:
		return BodyProfile(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownProfile, "'%s'", s)
	}
}

// JointMap translates backend joint indices into canonical joint ids. It is never modified after construction.
type JointMap struct {
	profile BodyProfile
	ids     []string
	index   map[string]int
}

func newJointMap(profile BodyProfile, ids []string) *JointMap {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return &JointMap{
		profile: profile,
		ids:     ids,
		index:   index,
	}
}

// Profile returns the body profile of the table
func (jm *JointMap) Profile() BodyProfile {
	return jm.profile
}

// Len returns the number of joints
func (jm *JointMap) Len() int {
	return len(jm.ids)
}

// ID returns the canonical id of a backend index
func (jm *JointMap) ID(idx int) (string, bool) {
	if idx < 0 || idx >= len(jm.ids) {
		return "", false
	}
	return jm.ids[idx], true
}

// Index returns the backend index of a canonical id
func (jm *JointMap) Index(id string) (int, bool) {
	idx, ok := jm.index[id]
	return idx, ok
}

// IDs returns the canonical ids in index order
func (jm *JointMap) IDs() []string {
	out := make([]string, len(jm.ids))
	copy(out, jm.ids)
	return out
}

// Export returns the table with stringified indices as keys, the way clients receive it
func (jm *JointMap) Export() map[string]string {
	out := make(map[string]string, len(jm.ids))
	for i, id := range jm.ids {
		out[strconv.Itoa(i)] = id
	}
	return out
}

// PoseFrom builds a pose from keypoints in backend index order. Extra keypoints are ignored.
func (jm *JointMap) PoseFrom(kps []Keypoint2D) Pose {
	p := make(Pose, len(jm.ids))
	for i, kp := range kps {
		if i >= len(jm.ids) {
			break
		}
		p[jm.ids[i]] = kp
	}
	return p
}

var body17 = []string{
	"nose",
	"leftEye",
	"rightEye",
	"leftEar",
	"rightEar",
	"leftShoulder",
	"rightShoulder",
	"leftElbow",
	"rightElbow",
	"leftWrist",
	"rightWrist",
	"leftHip",
	"rightHip",
	"leftKnee",
	"rightKnee",
	"leftAnkle",
	"rightAnkle",
}

var body25 = []string{
	"nose",
	"neck",
	"rightShoulder",
	"rightElbow",
	"rightWrist",
	"leftShoulder",
	"leftElbow",
	"leftWrist",
	"midHip",
	"rightHip",
	"rightKnee",
	"rightAnkle",
	"leftHip",
	"leftKnee",
	"leftAnkle",
	"rightEye",
	"leftEye",
	"rightEar",
	"leftEar",
	"leftBigToe",
	"leftSmallToe",
	"leftHeel",
	"rightBigToe",
	"rightSmallToe",
	"rightHeel",
}

var feet6 = []string{
	"leftBigToe",
	"leftSmallToe",
	"leftHeel",
	"rightBigToe",
	"rightSmallToe",
	"rightHeel",
}

var fingers = []string{"Thumb", "Index", "Middle", "Ring", "Pinky"}

// faceRegions are laid out contiguously in this order
var faceRegions = []struct {
	prefix string
	count  int
}{
	{"faceContour", 17},
	{"rightEyebrow", 5},
	{"leftEyebrow", 5},
	{"noseBridge", 4},
	{"noseLower", 5},
	{"rightEye", 6},
	{"leftEye", 6},
	{"outerLip", 12},
	{"innerLip", 8},
}

// handSection is a palm followed by four segments per finger
func handSection(side string) []string {
	out := make([]string, 0, 1+len(fingers)*4)
	out = append(out, side+"Palm")
	for _, finger := range fingers {
		for segment := 1; segment <= 4; segment++ {
			out = append(out, fmt.Sprintf("%s%s%d", side, finger, segment))
		}
	}
	return out
}

func wholeBody133() []string {
	ids := make([]string, 0, 133)
	ids = append(ids, body17...)
	ids = append(ids, feet6...)
	ids = append(ids, handSection("left")...)
	ids = append(ids, handSection("right")...)
	for _, region := range faceRegions {
		for i := 0; i < region.count; i++ {
			ids = append(ids, fmt.Sprintf("%s%d", region.prefix, i))
		}
	}
	return ids
}

var jointMaps = map[BodyProfile]*JointMap{
	ProfileBody17:       newJointMap(ProfileBody17, body17),
	ProfileBody25:       newJointMap(ProfileBody25, body25),
	ProfileWholeBody133: newJointMap(ProfileWholeBody133, wholeBody133()),
}

// JointMapFor returns the table of a body profile
func JointMapFor(profile BodyProfile) (*JointMap, error) {
	jm, ok := jointMaps[profile]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProfile, "'%s'", profile)
	}
	return jm, nil
}
