package pose

import (
	"math"
	"testing"
)

func TestToUnit(t *testing.T) {
	cases := []struct {
		x, y   float64
		nx, ny float64
	}{
		{x: 0, y: 0, nx: -1, ny: 1},
		{x: 640, y: 480, nx: 1, ny: -1},
		{x: 320, y: 240, nx: 0, ny: 0},
		{x: 160, y: 360, nx: -0.5, ny: -0.5},
	}
	for i, c := range cases {
		nx, ny := ToUnit(c.x, c.y, 640, 480)
		if math.Abs(nx-c.nx) > eps || math.Abs(ny-c.ny) > eps {
			t.Errorf("Case #%d. Wrong answer: (%v, %v), correct answer: (%v, %v)", i, nx, ny, c.nx, c.ny)
		}
	}
}

func TestUnitRoundTrip(t *testing.T) {
	sizes := [][2]float64{{640, 480}, {1920, 1080}, {193, 7}}
	for _, size := range sizes {
		w, h := size[0], size[1]
		for i := 0; i <= 20; i++ {
			for j := 0; j <= 20; j++ {
				x := w * float64(i) / 20.0
				y := h * float64(j) / 20.0
				nx, ny := ToUnit(x, y, w, h)
				bx, by := FromUnit(nx, ny, w, h)
				if math.Abs(bx-x) > 1e-9 || math.Abs(by-y) > 1e-9 {
					t.Errorf("Size %vx%v: (%v, %v) came back as (%v, %v)", w, h, x, y, bx, by)
				}
			}
		}
	}
}

func TestNormalizePose(t *testing.T) {
	p := Pose{
		"nose":     {X: 320, Y: 240, C: 0.9},
		"leftEye":  {X: 640, Y: 0, C: 0.5},
		"rightEye": Missing,
	}
	unit := NormalizePose(p, 640, 480)
	if unit["nose"].X != 0 || unit["nose"].Y != 0 || unit["nose"].C != 0.9 {
		t.Errorf("Wrong nose: %+v", unit["nose"])
	}
	if unit["leftEye"].X != 1 || unit["leftEye"].Y != 1 {
		t.Errorf("Wrong leftEye: %+v", unit["leftEye"])
	}
	if !unit["rightEye"].IsMissing() {
		t.Errorf("Missing joint must stay missing, got %+v", unit["rightEye"])
	}
	back := DenormalizePose(unit, 640, 480)
	for jid, kp := range p {
		if kp.IsMissing() {
			continue
		}
		if math.Abs(back[jid].X-kp.X) > eps || math.Abs(back[jid].Y-kp.Y) > eps {
			t.Errorf("Joint %s: %+v came back as %+v", jid, kp, back[jid])
		}
	}
	if _, ok := p["nose"]; !ok || p["nose"].X != 320 {
		t.Errorf("Input pose must not be modified")
	}
}
