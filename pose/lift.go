package pose

import "github.com/pkg/errors"

// LiftModelVideoPose3D is the only supported lifting model name
const LiftModelVideoPose3D = "videopose3d"

// LiftOptions configures 3D lifting
type LiftOptions struct {
	Model           string
	ReceptiveFrames int
	ScaleToRig      bool
}

// DefaultLiftOptions returns videopose3d with a 27 frame receptive field
func DefaultLiftOptions() LiftOptions {
	return LiftOptions{
		Model:           LiftModelVideoPose3D,
		ReceptiveFrames: 27,
		ScaleToRig:      true,
	}
}

// Lifter turns a sequence of unit-space 2D poses into 3D poses, one output per input frame
type Lifter interface {
	Lift(frames []Pose, joints []string) []Pose3D
}

// NewLifter returns the lifter for opts.Model
func NewLifter(opts LiftOptions) (Lifter, error) {
	switch opts.Model {
	case LiftModelVideoPose3D:
		return &identityLifter{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownLiftModel, "'%s'", opts.Model)
	}
}

// identityLifter is the placeholder lifter: it keeps x/y, sets z to zero and fills absent joints with zeros.
// The temporal convolution model is not bundled, so depth is never estimated.
type identityLifter struct{}

func (l *identityLifter) Lift(frames []Pose, joints []string) []Pose3D {
	out := make([]Pose3D, len(frames))
	for i, frame := range frames {
		lifted := make(Pose3D, len(joints))
		for _, jid := range joints {
			kp, ok := frame[jid]
			if !ok || kp.IsMissing() {
				lifted[jid] = Keypoint3D{}
				continue
			}
			lifted[jid] = Keypoint3D{X: kp.X, Y: kp.Y, Z: 0, C: kp.C}
		}
		out[i] = lifted
	}
	return out
}
