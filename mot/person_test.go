package mot

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestNewPerson(t *testing.T) {
	bbox := Rectangle{X: 10, Y: 20, Width: 30, Height: 40}
	person := NewPerson(bbox, 0.8)
	if person == nil {
		t.Fatal("NewPerson returned nil")
	}
	if person.GetID() == uuid.Nil {
		t.Error("Person ID should not be nil")
	}
	if person.GetBBox() != bbox {
		t.Errorf("Expected bbox %v, got %v", bbox, person.GetBBox())
	}
	if person.GetScore() != 0.8 {
		t.Errorf("Expected score 0.8, got %v", person.GetScore())
	}
	if person.GetPredictedBBox() != bbox {
		t.Errorf("Prediction should start at the detection box, got %v", person.GetPredictedBBox())
	}
}

func TestPersonNoMatchTimes(t *testing.T) {
	person := NewPerson(Rectangle{X: 0, Y: 0, Width: 10, Height: 10}, 1)
	person.IncNoMatch()
	person.IncNoMatch()
	if person.GetNoMatchTimes() != 2 {
		t.Errorf("Expected NoMatchTimes 2, got %d", person.GetNoMatchTimes())
	}
	person.ResetNoMatch()
	if person.GetNoMatchTimes() != 0 {
		t.Error("NoMatchTimes should be 0 after reset")
	}
}

func TestPersonUpdate(t *testing.T) {
	person := NewPerson(Rectangle{X: 100, Y: 100, Width: 50, Height: 120}, 0.9)
	for i := 1; i <= 5; i++ {
		person.PredictNextPosition()
		detection := NewPerson(Rectangle{X: 100 + float64(i)*2, Y: 100, Width: 50, Height: 120}, 0.7)
		if err := person.Update(detection); err != nil {
			t.Fatalf("Can't update person: %v", err)
		}
	}
	if person.GetNoMatchTimes() != 0 {
		t.Error("NoMatchTimes should be 0 after Update()")
	}
	if person.GetScore() != 0.7 {
		t.Errorf("Score should follow the last detection, got %v", person.GetScore())
	}
	center := person.GetBBox().Center()
	// Measurements end at cx = 135
	if math.Abs(center.X-135) > 5 || math.Abs(center.Y-160) > 5 {
		t.Errorf("Filtered center %v is too far from measurements", center)
	}
}
