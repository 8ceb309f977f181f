package report

import (
	"fmt"
	"image/color"

	"github.com/LdDl/pose-go/pose"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when a joint has no finite sample in either track
var ErrNoData = errors.New("no data for joint")

var (
	rawXColor    = color.RGBA{R: 248, G: 113, B: 113, A: 255}
	smoothXColor = color.RGBA{R: 185, G: 28, B: 28, A: 255}
	rawYColor    = color.RGBA{R: 129, G: 140, B: 248, A: 255}
	smoothYColor = color.RGBA{R: 55, G: 48, B: 163, A: 255}
)

// PlotJoint saves a PNG of one joint's x and y over frames, raw against smoothed.
// Gaps are left out of the lines.
func PlotJoint(raw, smoothed pose.Track, joint string, path string) error {
	rawX, rawY := seriesXYs(raw, joint)
	smoothX, smoothY := seriesXYs(smoothed, joint)
	if len(rawX) == 0 && len(smoothX) == 0 {
		return errors.Wrapf(ErrNoData, "'%s'", joint)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s space)", joint, raw.Space)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Coordinate"

	lines := []struct {
		label string
		pts   plotter.XYs
		color color.RGBA
		dash  bool
	}{
		{"x raw", rawX, rawXColor, true},
		{"x smoothed", smoothX, smoothXColor, false},
		{"y raw", rawY, rawYColor, true},
		{"y smoothed", smoothY, smoothYColor, false},
	}
	for _, l := range lines {
		if len(l.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(l.pts)
		if err != nil {
			return errors.Wrapf(err, "Can't build line '%s'", l.label)
		}
		line.Color = l.color
		line.Width = vg.Points(1)
		if l.dash {
			line.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(l.label, line)
	}
	p.Add(plotter.NewGrid())

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Legend.ThumbnailWidth = vg.Points(20)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "Can't save plot to '%s'", path)
	}
	return nil
}

// seriesXYs collects the finite samples of a joint as (frame, x) and (frame, y) points
func seriesXYs(t pose.Track, joint string) (plotter.XYs, plotter.XYs) {
	xs, ys, _ := t.Series(joint)
	xPts := make(plotter.XYs, 0, len(xs))
	yPts := make(plotter.XYs, 0, len(ys))
	for i := range xs {
		kp := pose.Keypoint2D{X: xs[i], Y: ys[i]}
		if kp.IsMissing() {
			continue
		}
		xPts = append(xPts, plotter.XY{X: float64(i), Y: xs[i]})
		yPts = append(yPts, plotter.XY{X: float64(i), Y: ys[i]})
	}
	return xPts, yPts
}
