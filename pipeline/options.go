package pipeline

import (
	"fmt"
	"runtime"

	"github.com/LdDl/pose-go/mot"
	"github.com/LdDl/pose-go/pose"
	"github.com/pkg/errors"
)

// PersonMode selects how many people are reported per frame
type PersonMode string

const (
	// PersonSingle keeps the best scored detection of every frame
	PersonSingle PersonMode = "single"
	// PersonMulti tracks every detection across frames
	PersonMulti PersonMode = "multi"
)

const (
	// DefaultFPS is used when the input carries no frame rate
	DefaultFPS = 24.0
	// DefaultProgressInterval is the number of frames between progress log lines
	DefaultProgressInterval = 10
)

// ParsePersonMode validates a person mode name
func ParsePersonMode(s string) (PersonMode, error) {
	switch PersonMode(s) {
	case PersonSingle, PersonMulti:
		return PersonMode(s), nil
	default:
		return "", errors.Wrapf(pose.ErrInput, "unknown person mode '%s'", s)
	}
}

// Options configures one Pipeline
type Options struct {
	BodyProfile      pose.BodyProfile
	PersonMode       PersonMode
	Smooth           pose.SmoothOptions
	Lift             *pose.LiftOptions
	InputSize        pose.Size
	Workers          int
	ProgressInterval int
	Tracker          mot.ByteTrackerOptions
}

// DefaultOptions returns single person ViTPose body processing with one-euro smoothing and identity lifting
func DefaultOptions() Options {
	lift := pose.DefaultLiftOptions()
	return Options{
		BodyProfile:      pose.ProfileBody17,
		PersonMode:       PersonSingle,
		Smooth:           pose.DefaultSmoothOptions(),
		Lift:             &lift,
		InputSize:        pose.DefaultInputSize,
		Workers:          runtime.NumCPU(),
		ProgressInterval: DefaultProgressInterval,
		Tracker:          mot.DefaultByteTrackerOptions(),
	}
}

// Validate checks every option and fails on the first bad one
func (o Options) Validate() error {
	if _, err := pose.JointMapFor(o.BodyProfile); err != nil {
		return err
	}
	if _, err := ParsePersonMode(string(o.PersonMode)); err != nil {
		return err
	}
	if err := o.Smooth.Validate(); err != nil {
		return err
	}
	if o.Lift != nil {
		if _, err := pose.NewLifter(*o.Lift); err != nil {
			return err
		}
	}
	if o.InputSize.Width <= 0 || o.InputSize.Height <= 0 {
		return errors.Wrapf(pose.ErrInput, "bad network input size %dx%d", o.InputSize.Width, o.InputSize.Height)
	}
	if o.Workers <= 0 {
		return errors.Wrapf(pose.ErrInput, "workers must be positive, got %d", o.Workers)
	}
	return nil
}

// Key identifies the pipeline configuration. Options with equal keys build equal pipelines.
func (o Options) Key() string {
	lift := "none"
	if o.Lift != nil {
		lift = fmt.Sprintf("%s/%d/%t", o.Lift.Model, o.Lift.ReceptiveFrames, o.Lift.ScaleToRig)
	}
	return fmt.Sprintf("%s|%s|%s:%g|%s|%dx%d|w%d|p%d|%s/%d/%g/%g/%g",
		o.BodyProfile,
		o.PersonMode,
		o.Smooth.Mode, o.Smooth.Strength,
		lift,
		o.InputSize.Width, o.InputSize.Height,
		o.Workers,
		o.ProgressInterval,
		o.Tracker.Algorithm, o.Tracker.MaxDisappeared, o.Tracker.MinIoU, o.Tracker.HighThresh, o.Tracker.LowThresh,
	)
}
