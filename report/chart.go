package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/LdDl/pose-go/pose"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// JointChart renders an HTML page with one line chart per joint, raw against smoothed.
// Both tracks are expected to have the same frame count; the longer one sets the x axis.
func JointChart(w io.Writer, raw, smoothed pose.Track, joints []string) error {
	frames := len(raw.Frames)
	if len(smoothed.Frames) > frames {
		frames = len(smoothed.Frames)
	}
	xAxis := make([]string, frames)
	for i := range xAxis {
		xAxis[i] = strconv.Itoa(i)
	}

	page := components.NewPage()
	page.PageTitle = "Joint tracks"
	for _, joint := range joints {
		rawX, rawY := lineData(raw, joint, frames)
		smoothX, smoothY := lineData(smoothed, joint, frames)

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
			charts.WithTitleOpts(opts.Title{Title: joint, Subtitle: fmt.Sprintf("%s space, %d frames", raw.Space, frames)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		)
		line.SetXAxis(xAxis).
			AddSeries("x raw", rawX).
			AddSeries("x smoothed", smoothX).
			AddSeries("y raw", rawY).
			AddSeries("y smoothed", smoothY)
		page.AddCharts(line)
	}

	if err := page.Render(w); err != nil {
		return errors.Wrap(err, "Can't render joint chart")
	}
	return nil
}

// lineData returns padded x and y series; gaps are "-", the echarts empty value
func lineData(t pose.Track, joint string, frames int) ([]opts.LineData, []opts.LineData) {
	xs, ys, _ := t.Series(joint)
	xData := make([]opts.LineData, frames)
	yData := make([]opts.LineData, frames)
	for i := 0; i < frames; i++ {
		if i >= len(xs) || (pose.Keypoint2D{X: xs[i], Y: ys[i]}).IsMissing() {
			xData[i] = opts.LineData{Value: "-"}
			yData[i] = opts.LineData{Value: "-"}
			continue
		}
		xData[i] = opts.LineData{Value: xs[i]}
		yData[i] = opts.LineData{Value: ys[i]}
	}
	return xData, yData
}
