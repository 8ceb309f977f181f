package render

import (
	"image/color"
	"math"
)

var (
	// gradient stops of SpectralColor: indigo, light indigo, red, pink, yellow
	gradient = []color.RGBA{
		{R: 99, G: 102, B: 241, A: 255},  // #6366F1
		{R: 129, G: 140, B: 248, A: 255}, // #818CF8
		{R: 248, G: 113, B: 113, A: 255}, // #F87171
		{R: 249, G: 168, B: 212, A: 255}, // #F9A8D4
		{R: 248, G: 250, B: 109, A: 255}, // #F8FA6D
	}

	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// SpectralColor interpolates the gradient at t, clamped to [0, 1]
func SpectralColor(t float64) color.RGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	idx := t * float64(len(gradient)-1)
	lo := int(math.Floor(idx))
	hi := lo + 1
	if hi > len(gradient)-1 {
		hi = len(gradient) - 1
	}
	alpha := idx - float64(lo)
	c1, c2 := gradient[lo], gradient[hi]
	return color.RGBA{
		R: mix(c1.R, c2.R, alpha),
		G: mix(c1.G, c2.G, alpha),
		B: mix(c1.B, c2.B, alpha),
		A: 255,
	}
}

// mix truncates like an int cast
func mix(a, b uint8, alpha float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*alpha)
}

// dim scales a color towards black
func dim(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}
