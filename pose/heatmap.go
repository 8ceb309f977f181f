package pose

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const (
	// refineStep is the sub-pixel nudge applied towards the higher neighbour
	refineStep = 0.25
)

// Heatmaps is a dense row-major [N][K][H][W] tensor: N pose samples, K joints, H x W grid per joint
type Heatmaps struct {
	N    int
	K    int
	H    int
	W    int
	Data []float64
}

// NewHeatmaps wraps data as a 4D tensor with the given shape. Data is not copied.
func NewHeatmaps(shape []int, data []float64) (*Heatmaps, error) {
	if len(shape) != 4 {
		return nil, errors.Wrapf(ErrShape, "heatmaps must be 4D, got %d dimensions", len(shape))
	}
	hm := &Heatmaps{
		N:    shape[0],
		K:    shape[1],
		H:    shape[2],
		W:    shape[3],
		Data: data,
	}
	if err := hm.validate(); err != nil {
		return nil, err
	}
	return hm, nil
}

func (hm *Heatmaps) validate() error {
	if hm.N < 0 || hm.K < 0 || hm.H <= 0 || hm.W <= 0 {
		return errors.Wrapf(ErrShape, "bad heatmap shape [%d %d %d %d]", hm.N, hm.K, hm.H, hm.W)
	}
	expected, ok := ElementCount(hm.N, hm.K, hm.H, hm.W)
	if !ok {
		return errors.Wrapf(ErrShape, "heatmap shape [%d %d %d %d] is too large", hm.N, hm.K, hm.H, hm.W)
	}
	if len(hm.Data) != expected {
		return errors.Wrapf(ErrShape, "heatmap shape [%d %d %d %d] needs %d values, got %d", hm.N, hm.K, hm.H, hm.W, expected, len(hm.Data))
	}
	return nil
}

// ElementCount multiplies tensor dimensions. It reports false for a negative dimension
// or when the product does not fit into an int.
func ElementCount(dims ...int) (int, bool) {
	total := 1
	for _, d := range dims {
		if d < 0 {
			return 0, false
		}
		if d != 0 && total > math.MaxInt/d {
			return 0, false
		}
		total *= d
	}
	return total, true
}

// Grid returns the H*W slice for sample n and joint k. It shares memory with Data.
func (hm *Heatmaps) Grid(n, k int) []float64 {
	size := hm.H * hm.W
	offset := (n*hm.K + k) * size
	return hm.Data[offset : offset+size]
}

// DecodedPoses holds per-sample joint positions in source image pixels
type DecodedPoses struct {
	Coords      [][]Point
	Confidences [][]float64
}

// Keypoints returns sample n as pixel-space keypoints in joint index order
func (dp *DecodedPoses) Keypoints(n int) []Keypoint2D {
	out := make([]Keypoint2D, len(dp.Coords[n]))
	for k, p := range dp.Coords[n] {
		out[k] = Keypoint2D{X: p.X, Y: p.Y, C: dp.Confidences[n][k]}
	}
	return out
}

// DecodeHeatmaps turns a heatmap batch into pixel-space joint positions.
//
// samples[n] is the crop that produced heatmap sample n and input is the network input size
// the crop was warped to. Per joint the grid argmax is taken (non-positive maxima zero the
// heatmap coordinate), nudged a quarter pixel towards the larger neighbour when it is not on
// the border, scaled up to the input size and mapped back with the inverse crop transform.
// Confidences are the raw maxima. Inert samples decode to (0,0) with zero confidence.
func DecodeHeatmaps(hm *Heatmaps, samples []CenterScale, input Size) (*DecodedPoses, error) {
	if hm == nil {
		return nil, errors.Wrap(ErrShape, "nil heatmaps")
	}
	if err := hm.validate(); err != nil {
		return nil, err
	}
	if len(samples) != hm.N {
		return nil, errors.Wrapf(ErrShape, "got %d samples for %d heatmaps", len(samples), hm.N)
	}
	if input.Width <= 0 || input.Height <= 0 {
		return nil, errors.Wrapf(ErrInput, "bad network input size %dx%d", input.Width, input.Height)
	}

	scaleX := float64(input.Width) / float64(hm.W)
	scaleY := float64(input.Height) / float64(hm.H)

	decoded := &DecodedPoses{
		Coords:      make([][]Point, hm.N),
		Confidences: make([][]float64, hm.N),
	}
	for n := 0; n < hm.N; n++ {
		coords := make([]Point, hm.K)
		confs := make([]float64, hm.K)
		decoded.Coords[n] = coords
		decoded.Confidences[n] = confs
		if samples[n].Inert {
			continue
		}
		trans := GetAffineTransform(samples[n].Center, samples[n].Scale, 0, input, Point{}, true)
		for k := 0; k < hm.K; k++ {
			grid := hm.Grid(n, k)
			p, maxVal := argmaxRefined(grid, hm.W, hm.H)
			p.X *= scaleX
			p.Y *= scaleY
			coords[k] = ApplyAffine(p, trans)
			confs[k] = maxVal
		}
	}
	return decoded, nil
}

// argmaxRefined returns the refined heatmap-space peak of one grid and its raw value
func argmaxRefined(grid []float64, w, h int) (Point, float64) {
	idx := floats.MaxIdx(grid)
	maxVal := grid[idx]
	if !(maxVal > 0) {
		return Point{}, maxVal
	}
	px := idx % w
	py := idx / w
	p := Point{X: float64(px), Y: float64(py)}
	if 1 < px && px < w-1 && 1 < py && py < h-1 {
		dx := grid[py*w+px+1] - grid[py*w+px-1]
		dy := grid[(py+1)*w+px] - grid[(py-1)*w+px]
		p.X += sign(dx) * refineStep
		p.Y += sign(dy) * refineStep
	}
	return p, maxVal
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// clampFinite replaces NaN and Inf with zero
func clampFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
