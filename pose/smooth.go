package pose

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SmoothMode selects the temporal filter
type SmoothMode string

const (
	// SmoothOneEuro is the causal adaptive low-pass filter
	SmoothOneEuro SmoothMode = "oneEuro"
	// SmoothSavgol is Savitzky-Golay polynomial smoothing
	SmoothSavgol SmoothMode = "savgol"
)

const (
	// One-euro calibration: strength 0 maps to the first value, strength 1 to the second
	oneEuroMinCutoffLow  = 2.5
	oneEuroMinCutoffHigh = 0.4
	oneEuroBetaLow       = 0.0
	oneEuroBetaHigh      = 1.0
	oneEuroDCutoff       = 1.0
	minFPS               = 1e-3

	savgolPolyOrder = 2
	savgolMinWindow = 3
	savgolMaxWindow = 21
)

// ParseSmoothMode validates a mode name
func ParseSmoothMode(s string) (SmoothMode, error) {
	switch SmoothMode(s) {
	case SmoothOneEuro, SmoothSavgol:
		return SmoothMode(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownSmoothMode, "'%s'", s)
	}
}

// SmoothOptions is the filter choice plus its strength in [0,1]. Out of range strength is clamped.
type SmoothOptions struct {
	Mode     SmoothMode
	Strength float64
}

// DefaultSmoothOptions is one-euro at strength 0.6
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{
		Mode:     SmoothOneEuro,
		Strength: 0.6,
	}
}

// Validate checks the mode
func (opts SmoothOptions) Validate() error {
	_, err := ParseSmoothMode(string(opts.Mode))
	return err
}

func clampStrength(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// InterpolateGaps returns a copy of series with non-finite samples filled linearly from the
// nearest finite neighbours. Leading and trailing gaps take the nearest finite value.
// A series without a single finite sample becomes all zeros.
func InterpolateGaps(series []float64) []float64 {
	out := make([]float64, len(series))
	valid := make([]int, 0, len(series))
	for i, v := range series {
		if isFinite(v) {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return out
	}
	next := 0
	for i, v := range series {
		if isFinite(v) {
			out[i] = v
			next++
			continue
		}
		switch {
		case next == 0:
			out[i] = series[valid[0]]
		case next == len(valid):
			out[i] = series[valid[len(valid)-1]]
		default:
			left, right := valid[next-1], valid[next]
			t := float64(i-left) / float64(right-left)
			out[i] = lerp(series[left], series[right], t)
		}
	}
	return out
}

// oneEuroAlpha is the smoothing factor of a first order low-pass with the given cutoff frequency
func oneEuroAlpha(cutoff, dt float64) float64 {
	tau := 1.0 / (2.0 * math.Pi * cutoff)
	return 1.0 / (1.0 + tau/dt)
}

// OneEuro runs the one-euro filter over a gap-free series sampled at fps.
// Higher strength lowers the minimum cutoff and raises the speed coefficient.
func OneEuro(series []float64, fps, strength float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	strength = clampStrength(strength)
	dt := 1.0 / math.Max(minFPS, fps)
	minCutoff := lerp(oneEuroMinCutoffLow, oneEuroMinCutoffHigh, strength)
	beta := lerp(oneEuroBetaLow, oneEuroBetaHigh, strength)
	alphaD := oneEuroAlpha(oneEuroDCutoff, dt)

	prev := series[0]
	dxPrev := 0.0
	out[0] = prev
	for i := 1; i < len(series); i++ {
		value := series[i]
		dx := (value - prev) / dt
		dxHat := alphaD*dx + (1.0-alphaD)*dxPrev
		cutoff := minCutoff + beta*math.Abs(dxHat)
		alpha := oneEuroAlpha(cutoff, dt)
		prev = alpha*value + (1.0-alpha)*prev
		dxPrev = dxHat
		out[i] = prev
	}
	return out
}

// SavgolWindow is the odd window length used for a series of n samples at the given strength.
// It grows from 3 to 21 with strength and stays strictly below n, but never below 3.
func SavgolWindow(n int, strength float64) int {
	window := int(savgolMinWindow + clampStrength(strength)*(savgolMaxWindow-savgolMinWindow))
	if window%2 == 0 {
		window++
	}
	if window >= n {
		if n%2 == 0 {
			window = n - 1
		} else {
			window = n - 2
		}
	}
	if window < savgolMinWindow {
		window = savgolMinWindow
	}
	return window
}

// SavitzkyGolay smooths a gap-free series with a second order polynomial fit over a sliding window.
// The first and last half windows are evaluated on the polynomial fitted to the first/last full window.
// Series shorter than 3 samples are returned unchanged (as a copy).
func SavitzkyGolay(series []float64, strength float64) []float64 {
	n := len(series)
	out := make([]float64, n)
	copy(out, series)
	if n < savgolMinWindow {
		return out
	}
	window := SavgolWindow(n, strength)
	hat := savgolHat(window, savgolPolyOrder)
	half := window / 2

	apply := func(row int, start int) float64 {
		sum := 0.0
		for j := 0; j < window; j++ {
			sum += hat.At(row, j) * series[start+j]
		}
		return sum
	}
	for i := 0; i < half; i++ {
		out[i] = apply(i, 0)
	}
	for i := half; i < n-half; i++ {
		out[i] = apply(half, i-half)
	}
	for i := n - half; i < n; i++ {
		out[i] = apply(i-(n-window), n-window)
	}
	return out
}

// savgolHat is the least squares projection A (A^T A)^-1 A^T onto polynomials of the given order
// sampled at window positions centered on zero. Row r evaluates the fit at position r.
func savgolHat(window, order int) *mat.Dense {
	half := float64(window / 2)
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		t := float64(i) - half
		v := 1.0
		for p := 0; p <= order; p++ {
			a.Set(i, p, v)
			v *= t
		}
	}
	var ata mat.Dense
	ata.Mul(a.T(), a)
	var coef mat.Dense
	if err := coef.Solve(&ata, a.T()); err != nil {
		// Only reachable for window <= order, which SavgolWindow never produces
		panic(errors.Wrapf(err, "savgol projection for window %d", window))
	}
	var hat mat.Dense
	hat.Mul(a, &coef)
	return &hat
}

// SmoothedSeries is the filtered x/y series of one joint with its confidence
type SmoothedSeries struct {
	X []float64
	Y []float64
	C []float64
}

// SmoothSeries gap-fills and filters one joint's x and y series. Confidence is passed through
// with non-finite values replaced by zero. All three series must have the same length.
func SmoothSeries(xs, ys, cs []float64, fps float64, opts SmoothOptions) (SmoothedSeries, error) {
	if err := opts.Validate(); err != nil {
		return SmoothedSeries{}, err
	}
	if len(xs) != len(ys) || len(xs) != len(cs) {
		return SmoothedSeries{}, errors.Wrapf(ErrInput, "series lengths differ: x=%d y=%d c=%d", len(xs), len(ys), len(cs))
	}
	filter := func(series []float64) []float64 {
		filled := InterpolateGaps(series)
		if opts.Mode == SmoothSavgol {
			return SavitzkyGolay(filled, opts.Strength)
		}
		return OneEuro(filled, fps, opts.Strength)
	}
	out := SmoothedSeries{
		X: filter(xs),
		Y: filter(ys),
		C: make([]float64, len(cs)),
	}
	for i, c := range cs {
		out.C[i] = clampFinite(c)
	}
	return out, nil
}

// Smooth filters every joint of the track independently and returns a new track in the same space.
// Gaps are interpolated, so every frame carries each joint that was seen at least once.
// Joints with an axis never seen in any frame are left out.
func Smooth(t Track, fps float64, opts SmoothOptions) (Track, error) {
	if err := opts.Validate(); err != nil {
		return Track{}, err
	}
	out := Track{
		Space:  t.Space,
		Joints: append([]string(nil), t.Joints...),
		Frames: make([]Pose, len(t.Frames)),
	}
	for i := range out.Frames {
		out.Frames[i] = make(Pose, len(t.Joints))
	}
	for _, jid := range t.Joints {
		xs, ys, cs := t.Series(jid)
		if !Observed(xs, ys) {
			continue
		}
		smoothed, err := SmoothSeries(xs, ys, cs, fps, opts)
		if err != nil {
			return Track{}, errors.Wrapf(err, "joint '%s'", jid)
		}
		smoothed.WriteTo(out.Frames, jid)
	}
	return out, nil
}

// WriteTo stores the series into frames under the joint id. Frames whose x or y is not finite are skipped.
func (s SmoothedSeries) WriteTo(frames []Pose, jid string) {
	for i := range frames {
		if i >= len(s.X) {
			return
		}
		if !isFinite(s.X[i]) || !isFinite(s.Y[i]) {
			continue
		}
		if frames[i] == nil {
			frames[i] = make(Pose)
		}
		frames[i][jid] = Keypoint2D{X: s.X[i], Y: s.Y[i], C: s.C[i]}
	}
}

// Observed reports whether both axes carry at least one finite sample, not necessarily
// in the same frame. Gaps are filled per axis, so such a joint can be smoothed.
func Observed(xs, ys []float64) bool {
	return anyFinite(xs) && anyFinite(ys)
}

func anyFinite(series []float64) bool {
	for _, v := range series {
		if isFinite(v) {
			return true
		}
	}
	return false
}
