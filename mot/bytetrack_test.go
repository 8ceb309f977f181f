package mot

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func frameDetections(shift float64, scores ...float64) []*Person {
	boxes := []Rectangle{
		{X: 100 + shift, Y: 100, Width: 50, Height: 120},
		{X: 400 - shift, Y: 110, Width: 55, Height: 125},
	}
	out := make([]*Person, len(scores))
	for i, score := range scores {
		out[i] = NewPerson(boxes[i], score)
	}
	return out
}

func TestByteTrackerKeepsIDs(t *testing.T) {
	for _, algorithm := range []MatchingAlgorithm{MatchingAlgorithmHungarian, MatchingAlgorithmGreedy} {
		opts := DefaultByteTrackerOptions()
		opts.Algorithm = algorithm
		tracker := NewByteTracker(opts)

		first, err := tracker.MatchObjects(frameDetections(0, 0.9, 0.8))
		if err != nil {
			t.Fatalf("%s: frame 1 failed: %v", algorithm, err)
		}
		if first[0] == uuid.Nil || first[1] == uuid.Nil || first[0] == first[1] {
			t.Fatalf("%s: expected two distinct new tracks, got %v", algorithm, first)
		}
		if len(tracker.Objects) != 2 {
			t.Errorf("%s: expected 2 objects, got %d", algorithm, len(tracker.Objects))
		}

		for frame := 1; frame < 5; frame++ {
			ids, err := tracker.MatchObjects(frameDetections(float64(frame)*2, 0.9, 0.85))
			if err != nil {
				t.Fatalf("%s: frame %d failed: %v", algorithm, frame+1, err)
			}
			if ids[0] != first[0] || ids[1] != first[1] {
				t.Errorf("%s: frame %d ids changed: %v, expected %v", algorithm, frame+1, ids, first)
			}
		}

		// Low confidence detection is recovered in the second stage
		ids, err := tracker.MatchObjects(frameDetections(10, 0.4, 0.9))
		if err != nil {
			t.Fatalf("%s: low confidence frame failed: %v", algorithm, err)
		}
		if ids[0] != first[0] {
			t.Errorf("%s: low confidence detection should keep track %s, got %s", algorithm, first[0], ids[0])
		}
		if len(tracker.GetActiveTracks()) != 2 {
			t.Errorf("%s: expected 2 active tracks, got %d", algorithm, len(tracker.GetActiveTracks()))
		}
	}
}

func TestByteTrackerDropsUnclaimedLowScores(t *testing.T) {
	tracker := NewByteTracker(DefaultByteTrackerOptions())
	ids, err := tracker.MatchObjects(frameDetections(0, 0.4, 0.1))
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if ids[0] != uuid.Nil || ids[1] != uuid.Nil {
		t.Errorf("Low confidence detections without tracks must be dropped, got %v", ids)
	}
	if len(tracker.Objects) != 0 {
		t.Errorf("No track should be created, got %d", len(tracker.Objects))
	}
}

func TestByteTrackerRemovesDisappeared(t *testing.T) {
	tracker := NewByteTracker(DefaultByteTrackerOptions())
	if _, err := tracker.MatchObjects(frameDetections(0, 0.9)); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := tracker.MatchObjects(nil); err != nil {
			t.Fatalf("Empty frame failed: %v", err)
		}
	}
	if len(tracker.Objects) != 0 {
		t.Errorf("Track should be removed after 5 missed frames, got %d objects", len(tracker.Objects))
	}
}

func TestParseMatchingAlgorithm(t *testing.T) {
	if a, err := ParseMatchingAlgorithm("greedy"); err != nil || a != MatchingAlgorithmGreedy {
		t.Errorf("Wrong answer: %v / %v", a, err)
	}
	if a, err := ParseMatchingAlgorithm("hungarian"); err != nil || a != MatchingAlgorithmHungarian {
		t.Errorf("Wrong answer: %v / %v", a, err)
	}
	if _, err := ParseMatchingAlgorithm("auction"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Unknown algorithm must fail, got %v", err)
	}
}
