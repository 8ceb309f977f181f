package pose

import "math"

// Space tells which coordinate system keypoints are expressed in
type Space uint8

const (
	// SpacePixel is source image pixels, origin top-left, y pointing down
	SpacePixel Space = iota
	// SpaceUnit is the signed unit square [-1,1], origin at the image center, y pointing up
	SpaceUnit
)

func (s Space) String() string {
	switch s {
	case SpacePixel:
		return "pixel"
	case SpaceUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// Keypoint2D is a joint position with its confidence
type Keypoint2D struct {
	X float64
	Y float64
	C float64
}

// Missing is the gap sentinel: both coordinates are NaN
var Missing = Keypoint2D{X: math.NaN(), Y: math.NaN(), C: 0}

// IsMissing reports whether either coordinate is not finite
func (kp Keypoint2D) IsMissing() bool {
	return !isFinite(kp.X) || !isFinite(kp.Y)
}

// Point drops the confidence
func (kp Keypoint2D) Point() Point {
	return Point{X: kp.X, Y: kp.Y}
}

// Pose is one person in one frame keyed by canonical joint id.
// An absent key is a missing joint.
type Pose map[string]Keypoint2D

// Clone returns a shallow copy of the pose
func (p Pose) Clone() Pose {
	out := make(Pose, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Track is one person across frames. Frames[i] may be nil or partial: absent joints are gaps.
type Track struct {
	Space  Space
	Joints []string
	Frames []Pose
}

// Series extracts the x, y and confidence time series of one joint. Gaps become NaN (confidence 0).
func (t Track) Series(joint string) (xs, ys, cs []float64) {
	xs = make([]float64, len(t.Frames))
	ys = make([]float64, len(t.Frames))
	cs = make([]float64, len(t.Frames))
	for i, frame := range t.Frames {
		kp, ok := frame[joint]
		if !ok {
			kp = Missing
		}
		xs[i] = kp.X
		ys[i] = kp.Y
		cs[i] = kp.C
	}
	return xs, ys, cs
}

// Keypoint3D is a lifted joint position
type Keypoint3D struct {
	X float64
	Y float64
	Z float64
	C float64
}

// Pose3D is one lifted person in one frame
type Pose3D map[string]Keypoint3D
