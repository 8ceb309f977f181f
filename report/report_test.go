package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/pose-go/pose"
	"github.com/pkg/errors"
)

func testTracks() (pose.Track, pose.Track) {
	raw := pose.Track{Space: pose.SpaceUnit, Joints: []string{"nose", "neck"}}
	for i := 0; i < 20; i++ {
		p := pose.Pose{"nose": {X: float64(i%2) * 0.2, Y: 0.5, C: 0.9}}
		if i == 7 {
			p = pose.Pose{}
		}
		raw.Frames = append(raw.Frames, p)
	}
	smoothed, err := pose.Smooth(raw, 30, pose.SmoothOptions{Mode: pose.SmoothOneEuro, Strength: 0.8})
	if err != nil {
		panic(err)
	}
	return raw, smoothed
}

func TestPlotJoint(t *testing.T) {
	raw, smoothed := testTracks()
	path := filepath.Join(t.TempDir(), "nose.png")
	if err := PlotJoint(raw, smoothed, "nose", path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG")
	}

	err = PlotJoint(raw, smoothed, "neck", filepath.Join(t.TempDir(), "neck.png"))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("wanted ErrNoData for a joint without samples, got %v", err)
	}
}

func TestSeriesXYsSkipsGaps(t *testing.T) {
	raw, _ := testTracks()
	xs, ys := seriesXYs(raw, "nose")
	if len(xs) != 19 || len(ys) != 19 {
		t.Fatalf("wanted 19 points, got %d and %d", len(xs), len(ys))
	}
	if xs[7].X != 8 {
		t.Errorf("wanted the gap frame skipped, point 7 is frame %v", xs[7].X)
	}
}

func TestJointChart(t *testing.T) {
	raw, smoothed := testTracks()
	var buf bytes.Buffer
	if err := JointChart(&buf, raw, smoothed, []string{"nose", "neck"}); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{"<html", "echarts", "nose", "x smoothed"} {
		if !strings.Contains(html, want) {
			t.Errorf("chart html is missing %q", want)
		}
	}
}

func TestLineDataPadsShortTracks(t *testing.T) {
	raw, _ := testTracks()
	xs, _ := lineData(raw, "nose", 25)
	if len(xs) != 25 {
		t.Fatalf("wanted 25 values, got %d", len(xs))
	}
	if xs[7].Value != "-" || xs[24].Value != "-" {
		t.Errorf("gaps and padding should be empty values")
	}
	if xs[1].Value != 0.2 {
		t.Errorf("wanted 0.2 at frame 1, got %v", xs[1].Value)
	}
}
