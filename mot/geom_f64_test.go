package mot

import (
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestIoU(t *testing.T) {
	cases := []struct {
		r1, r2  Rectangle
		correct float64
	}{
		{r1: NewRect(0, 0, 10, 10), r2: NewRect(0, 0, 10, 10), correct: 1.0},
		{r1: NewRect(0, 0, 10, 10), r2: NewRect(5, 0, 10, 10), correct: 50.0 / 150.0},
		{r1: NewRect(0, 0, 10, 10), r2: NewRect(20, 20, 10, 10), correct: 0.0},
		{r1: NewRect(0, 0, 10, 10), r2: NewRect(2, 2, 0, 0), correct: 0.0},
	}
	for i, c := range cases {
		answer := IoU(c.r1, c.r2)
		if math.Abs(answer-c.correct) > eps {
			t.Errorf("Case #%d. Wrong answer: %v, correct answer: %v", i, answer, c.correct)
		}
	}
}

func TestRectangleCenter(t *testing.T) {
	r := NewRect(10, 20, 30, 40)
	correct := Point{X: 25, Y: 40}
	if r.Center() != correct {
		t.Errorf("Wrong answer: %v, correct answer: %v", r.Center(), correct)
	}
}
