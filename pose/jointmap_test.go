package pose

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"
)

func TestJointMapSizes(t *testing.T) {
	cases := []struct {
		profile BodyProfile
		correct int
	}{
		{profile: ProfileBody17, correct: 17},
		{profile: ProfileBody25, correct: 25},
		{profile: ProfileWholeBody133, correct: 133},
	}
	for _, c := range cases {
		jm, err := JointMapFor(c.profile)
		if err != nil {
			t.Fatalf("Can't get joint map for %s: %v", c.profile, err)
		}
		if jm.Len() != c.correct {
			t.Errorf("Profile %s. Wrong size: %d, correct: %d", c.profile, jm.Len(), c.correct)
		}
		if jm.Profile() != c.profile {
			t.Errorf("Wrong profile: %s, correct: %s", jm.Profile(), c.profile)
		}
	}
}

func TestJointMapWholeBodyComplete(t *testing.T) {
	jm, err := JointMapFor(ProfileWholeBody133)
	if err != nil {
		t.Fatalf("Can't get joint map: %v", err)
	}
	exported := jm.Export()
	if len(exported) != 133 {
		t.Fatalf("Wrong number of entries: %d", len(exported))
	}
	seenIDs := make(map[string]int, 133)
	for i := 0; i < 133; i++ {
		id, ok := exported[strconv.Itoa(i)]
		if !ok {
			t.Errorf("Index %d is missing", i)
			continue
		}
		if prev, dup := seenIDs[id]; dup {
			t.Errorf("Id '%s' used by both %d and %d", id, prev, i)
		}
		seenIDs[id] = i
		if idx, ok := jm.Index(id); !ok || idx != i {
			t.Errorf("Reverse lookup of '%s' gave %d, correct: %d", id, idx, i)
		}
	}
	if _, ok := exported["133"]; ok {
		t.Errorf("Index 133 must not exist")
	}
}

func TestJointMapWholeBodyLayout(t *testing.T) {
	jm, err := JointMapFor(ProfileWholeBody133)
	if err != nil {
		t.Fatalf("Can't get joint map: %v", err)
	}
	cases := map[int]string{
		0:   "nose",
		16:  "rightAnkle",
		17:  "leftBigToe",
		22:  "rightHeel",
		23:  "leftPalm",
		24:  "leftThumb1",
		27:  "leftThumb4",
		28:  "leftIndex1",
		43:  "leftPinky4",
		44:  "rightPalm",
		64:  "rightPinky4",
		65:  "faceContour0",
		81:  "faceContour16",
		82:  "rightEyebrow0",
		87:  "leftEyebrow0",
		92:  "noseBridge0",
		96:  "noseLower0",
		101: "rightEye0",
		107: "leftEye0",
		113: "outerLip0",
		124: "outerLip11",
		125: "innerLip0",
		132: "innerLip7",
	}
	for idx, correct := range cases {
		answer, ok := jm.ID(idx)
		if !ok || answer != correct {
			t.Errorf("Index %d. Wrong answer: '%s', correct answer: '%s'", idx, answer, correct)
		}
	}
	if _, ok := jm.ID(133); ok {
		t.Errorf("Out of range index must not resolve")
	}
	if _, ok := jm.ID(-1); ok {
		t.Errorf("Negative index must not resolve")
	}
}

func TestJointMapBody25(t *testing.T) {
	jm, err := JointMapFor(ProfileBody25)
	if err != nil {
		t.Fatalf("Can't get joint map: %v", err)
	}
	cases := map[int]string{1: "neck", 2: "rightShoulder", 8: "midHip", 15: "rightEye", 19: "leftBigToe", 24: "rightHeel"}
	for idx, correct := range cases {
		if answer, _ := jm.ID(idx); answer != correct {
			t.Errorf("Index %d. Wrong answer: '%s', correct answer: '%s'", idx, answer, correct)
		}
	}
}

func TestJointMapPoseFrom(t *testing.T) {
	jm, err := JointMapFor(ProfileBody17)
	if err != nil {
		t.Fatalf("Can't get joint map: %v", err)
	}
	kps := make([]Keypoint2D, 20)
	for i := range kps {
		kps[i] = Keypoint2D{X: float64(i), Y: 1, C: 0.5}
	}
	p := jm.PoseFrom(kps)
	if len(p) != 17 {
		t.Errorf("Wrong pose size: %d", len(p))
	}
	if p["rightAnkle"].X != 16 {
		t.Errorf("Wrong rightAnkle: %+v", p["rightAnkle"])
	}
	ids := jm.IDs()
	ids[0] = "changed"
	if first, _ := jm.ID(0); first != "nose" {
		t.Errorf("IDs() must return a copy")
	}
}

func TestJointMapUnknown(t *testing.T) {
	if _, err := JointMapFor("openpose_18"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Unknown profile must fail, got %v", err)
	}
	if _, err := ParseBodyProfile("vitpose_body_17"); err != nil {
		t.Errorf("Known profile must parse, got %v", err)
	}
}
