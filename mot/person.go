package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Person is a tracked person box using 8-D Kalman filter for full bounding box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh].
//
// A freshly created Person is a detection. Once the tracker accepts it, it becomes a track and
// later detections are merged into it via Update.
type Person struct {
	id            uuid.UUID
	currentBBox   Rectangle
	predictedBBox Rectangle
	score         float64
	noMatchTimes  int
	tracker       *kalman_filter.KalmanBBox
}

// NewPersonWithTime creates a new Person with specified time step.
func NewPersonWithTime(bbox Rectangle, score, dt float64) *Person {
	center := bbox.Center()

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, bbox.Width, bbox.Height),
	)

	person := Person{
		id:            uuid.New(),
		currentBBox:   bbox,
		predictedBBox: bbox,
		score:         score,
		tracker:       kf,
	}
	return &person
}

// NewPerson creates a new Person with default time step of 1.0 (one frame).
func NewPerson(bbox Rectangle, score float64) *Person {
	return NewPersonWithTime(bbox, score, 1.0)
}

// GetID returns person's identifier
func (p *Person) GetID() uuid.UUID {
	return p.id
}

// GetScore returns detection score of the last merged detection
func (p *Person) GetScore() float64 {
	return p.score
}

// GetBBox returns person's current bounding box
func (p *Person) GetBBox() Rectangle {
	return p.currentBBox
}

// GetPredictedBBox returns predicted bounding box from Kalman filter
func (p *Person) GetPredictedBBox() Rectangle {
	return p.predictedBBox
}

// GetNoMatchTimes returns number of consecutive frames without a matched detection
func (p *Person) GetNoMatchTimes() int {
	return p.noMatchTimes
}

// IncNoMatch increases person's no match times
func (p *Person) IncNoMatch() {
	p.noMatchTimes++
}

// ResetNoMatch resets person's no match times
func (p *Person) ResetNoMatch() {
	p.noMatchTimes = 0
}

// PredictNextPosition executes Kalman filter prediction step
func (p *Person) PredictNextPosition() {
	p.tracker.Predict()
	cx, cy, w, h := p.tracker.GetState()
	p.predictedBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}

// Update merges a detection into the track and executes Kalman filter update step
func (p *Person) Update(detection *Person) error {
	measured := detection.currentBBox.Center()
	err := p.tracker.Update(measured.X, measured.Y, detection.currentBBox.Width, detection.currentBBox.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update person tracker")
	}

	cx, cy, w, h := p.tracker.GetState()
	p.currentBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	p.score = detection.score
	p.noMatchTimes = 0
	return nil
}
