package render

import (
	"image"
	"math"

	"github.com/LdDl/pose-go/pose"
	"gocv.io/x/gocv"
)

const (
	glowThickness = 6
	boneThickness = 2
	overlayWeight = 0.35
	canvasWeight  = 0.65
	glowFactor    = 0.45
)

// DrawSkeleton draws a unit-space pose onto canvas. Bones are colored along the spectral
// gradient in the order given; joints are white discs. A wider glow pass is drawn on a copy
// of the canvas and blended back.
func DrawSkeleton(canvas *gocv.Mat, p pose.Pose, bones []Bone) {
	h, w := canvas.Rows(), canvas.Cols()
	if h == 0 || w == 0 {
		return
	}
	overlay := canvas.Clone()
	defer overlay.Close()

	jointRadius := int(math.Min(float64(h), float64(w)) * 0.01)
	if jointRadius < 3 {
		jointRadius = 3
	}
	glowRadius := jointRadius + 3

	denom := len(bones) - 1
	if denom < 1 {
		denom = 1
	}
	for idx, bone := range bones {
		a, okA := p[bone.A]
		b, okB := p[bone.B]
		if !okA || !okB || a.IsMissing() || b.IsMissing() {
			continue
		}
		p1 := toPixel(a, w, h)
		p2 := toPixel(b, w, h)
		c := SpectralColor(float64(idx) / float64(denom))
		gocv.Line(&overlay, p1, p2, dim(c, glowFactor), glowThickness)
		gocv.Line(canvas, p1, p2, c, boneThickness)
	}

	for _, kp := range p {
		if kp.IsMissing() {
			continue
		}
		pt := toPixel(kp, w, h)
		gocv.Circle(&overlay, pt, glowRadius, White, -1)
		gocv.Circle(canvas, pt, jointRadius, White, -1)
	}

	gocv.AddWeighted(overlay, overlayWeight, *canvas, canvasWeight, 0, canvas)
}

func toPixel(kp pose.Keypoint2D, w, h int) image.Point {
	x, y := pose.FromUnit(kp.X, kp.Y, float64(w), float64(h))
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}
