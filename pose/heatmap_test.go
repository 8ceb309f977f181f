package pose

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

// identitySample maps a 192x256 network input one to one onto the frame
var identitySample = CenterScale{
	Center: Point{X: 96, Y: 128},
	Scale:  Point{X: 192.0 / PixelStd, Y: 256.0 / PixelStd},
}

func newTestHeatmaps(t *testing.T, n, k, h, w int) *Heatmaps {
	t.Helper()
	hm, err := NewHeatmaps([]int{n, k, h, w}, make([]float64, n*k*h*w))
	if err != nil {
		t.Fatalf("Can't create heatmaps: %v", err)
	}
	return hm
}

func TestDecodeHeatmapsSinglePeak(t *testing.T) {
	hm := newTestHeatmaps(t, 1, 2, 64, 48)
	// joint 0 peaks at (10, 20), joint 1 on the border at (0, 5)
	hm.Grid(0, 0)[20*48+10] = 1.0
	hm.Grid(0, 1)[5*48+0] = 0.7

	decoded, err := DecodeHeatmaps(hm, []CenterScale{identitySample}, DefaultInputSize)
	if err != nil {
		t.Fatalf("Can't decode: %v", err)
	}
	// Heatmap is a quarter of the input, so coordinates are multiplied by 4
	correct := []Point{{X: 40, Y: 80}, {X: 0, Y: 20}}
	correctConf := []float64{1.0, 0.7}
	for k := range correct {
		answer := decoded.Coords[0][k]
		if math.Abs(answer.X-correct[k].X) > eps || math.Abs(answer.Y-correct[k].Y) > eps {
			t.Errorf("Joint #%d. Wrong answer: %v, correct answer: %v", k, answer, correct[k])
		}
		if math.Abs(decoded.Confidences[0][k]-correctConf[k]) > eps {
			t.Errorf("Joint #%d. Wrong confidence: %v, correct: %v", k, decoded.Confidences[0][k], correctConf[k])
		}
	}

	kps := decoded.Keypoints(0)
	if len(kps) != 2 || kps[0].C != 1.0 || kps[0].X != decoded.Coords[0][0].X {
		t.Errorf("Keypoints do not match decoded values: %+v", kps)
	}
}

func TestArgmaxRefined(t *testing.T) {
	w, h := 48, 64
	grid := make([]float64, w*h)
	grid[20*w+10] = 1.0
	// right neighbour is larger than the left one, upper larger than the lower one
	grid[20*w+11] = 0.5
	grid[19*w+10] = 0.3

	p, maxVal := argmaxRefined(grid, w, h)
	correct := Point{X: 10.25, Y: 19.75}
	if math.Abs(p.X-correct.X) > eps || math.Abs(p.Y-correct.Y) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", p, correct)
	}
	if maxVal != 1.0 {
		t.Errorf("Confidence must be the raw maximum, got %v", maxVal)
	}
}

func TestArgmaxRefinedNoPeak(t *testing.T) {
	w, h := 8, 8
	grid := make([]float64, w*h)
	for i := range grid {
		grid[i] = -0.5
	}
	grid[3*w+4] = -0.1
	p, maxVal := argmaxRefined(grid, w, h)
	if p != (Point{}) {
		t.Errorf("Non-positive maximum must zero the coordinate, got %v", p)
	}
	if maxVal != -0.1 {
		t.Errorf("Wrong confidence: %v, correct: %v", maxVal, -0.1)
	}
}

func TestDecodeHeatmapsInertSample(t *testing.T) {
	hm := newTestHeatmaps(t, 2, 1, 64, 48)
	hm.Grid(0, 0)[20*48+10] = 1.0
	hm.Grid(1, 0)[20*48+10] = 1.0

	inert := BoxToCenterScale(BoundingBox{X: 5, Y: 5, W: 0, H: 0}, DefaultInputSize.AspectRatio())
	decoded, err := DecodeHeatmaps(hm, []CenterScale{identitySample, inert}, DefaultInputSize)
	if err != nil {
		t.Fatalf("Can't decode: %v", err)
	}
	p := decoded.Coords[1][0]
	if !p.IsFinite() || p != (Point{}) {
		t.Errorf("Inert sample must decode to (0,0), got %v", p)
	}
	if decoded.Confidences[1][0] != 0 {
		t.Errorf("Inert sample must have zero confidence, got %v", decoded.Confidences[1][0])
	}
	if decoded.Confidences[0][0] != 1.0 {
		t.Errorf("Regular sample in the same batch must be decoded, got confidence %v", decoded.Confidences[0][0])
	}
}

func TestDecodeHeatmapsContract(t *testing.T) {
	if _, err := NewHeatmaps([]int{1, 17, 64}, make([]float64, 17*64)); !errors.Is(err, ErrShape) {
		t.Errorf("3D shape must fail with ErrShape, got %v", err)
	}
	if _, err := NewHeatmaps([]int{1, 1, 4, 4}, make([]float64, 15)); !errors.Is(err, ErrShape) {
		t.Errorf("Size mismatch must fail with ErrShape, got %v", err)
	}
	if _, err := NewHeatmaps([]int{1, 1, 1 << 32, 1 << 32}, []float64{}); !errors.Is(err, ErrShape) {
		t.Errorf("Overflowing shape must fail with ErrShape, got %v", err)
	}
	hm := newTestHeatmaps(t, 2, 1, 4, 4)
	if _, err := DecodeHeatmaps(hm, []CenterScale{identitySample}, DefaultInputSize); !errors.Is(err, ErrShape) {
		t.Errorf("Sample count mismatch must fail with ErrShape, got %v", err)
	}
	if _, err := DecodeHeatmaps(nil, nil, DefaultInputSize); !errors.Is(err, ErrShape) {
		t.Errorf("Nil heatmaps must fail with ErrShape, got %v", err)
	}
	if _, err := DecodeHeatmaps(hm, []CenterScale{identitySample, identitySample}, Size{}); !errors.Is(err, ErrInput) {
		t.Errorf("Empty input size must fail with ErrInput, got %v", err)
	}
}

func TestElementCount(t *testing.T) {
	if n, ok := ElementCount(2, 17, 64, 48); !ok || n != 2*17*64*48 {
		t.Errorf("Count should be %d, got %d (ok=%v)", 2*17*64*48, n, ok)
	}
	if n, ok := ElementCount(0, 1<<40, 1<<40); !ok || n != 0 {
		t.Errorf("Zero dimension should give 0, got %d (ok=%v)", n, ok)
	}
	if _, ok := ElementCount(1, 1, 1<<32, 1<<32); ok {
		t.Errorf("Overflowing product must be rejected")
	}
	if _, ok := ElementCount(4, -1); ok {
		t.Errorf("Negative dimension must be rejected")
	}
}
