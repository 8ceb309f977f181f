package pose

import (
	"testing"

	"github.com/pkg/errors"
)

func TestIdentityLifter(t *testing.T) {
	lifter, err := NewLifter(DefaultLiftOptions())
	if err != nil {
		t.Fatalf("Can't create lifter: %v", err)
	}
	frames := []Pose{
		{"nose": {X: 0.1, Y: 0.2, C: 0.9}},
		{},
	}
	lifted := lifter.Lift(frames, []string{"nose", "leftEye"})
	if len(lifted) != 2 {
		t.Fatalf("Wrong number of frames: %d", len(lifted))
	}
	correct := Keypoint3D{X: 0.1, Y: 0.2, Z: 0, C: 0.9}
	if lifted[0]["nose"] != correct {
		t.Errorf("Wrong answer: %+v, correct answer: %+v", lifted[0]["nose"], correct)
	}
	for i, frame := range lifted {
		if _, ok := frame["leftEye"]; !ok {
			t.Errorf("Frame #%d: absent joints must be zero-filled", i)
		}
	}
	if lifted[1]["nose"] != (Keypoint3D{}) {
		t.Errorf("Absent joint must be zero, got %+v", lifted[1]["nose"])
	}
}

func TestNewLifterUnknown(t *testing.T) {
	if _, err := NewLifter(LiftOptions{Model: "motionbert"}); !errors.Is(err, ErrUnknownLiftModel) {
		t.Errorf("Unknown model must fail, got %v", err)
	}
}
