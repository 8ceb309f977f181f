package pose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// AffineTransform is a 2x3 matrix mapping one 2D frame onto another
type AffineTransform [2][3]float64

// BoxToCenterScale converts a detection box into the center/scale crop representation
// for a network input with the given width/height aspect ratio.
//
// The shorter side (relative to the aspect ratio) is widened, the result is expressed in
// PixelStd units, floored at 1e-3 and padded by ScalePadding. Boxes with (near) zero width
// or height give InertCenterScale instead of an error: such boxes are a detector artifact and
// must end up as zero-confidence keypoints downstream.
func BoxToCenterScale(box BoundingBox, aspectRatio float64) CenterScale {
	w, h := box.W, box.H
	if !(w >= minBoxSide) || !(h >= minBoxSide) {
		return InertCenterScale
	}
	if !(aspectRatio > 0) || math.IsInf(aspectRatio, 0) {
		aspectRatio = DefaultInputSize.AspectRatio()
	}
	center := Point{
		X: box.X + w*0.5,
		Y: box.Y + h*0.5,
	}
	if w > aspectRatio*h {
		h = w / aspectRatio
	} else if w < aspectRatio*h {
		w = h * aspectRatio
	}
	scale := Point{
		X: math.Max(w/PixelStd, minScale) * ScalePadding,
		Y: math.Max(h/PixelStd, minScale) * ScalePadding,
	}
	return CenterScale{
		Center: center,
		Scale:  scale,
	}
}

// GetAffineTransform builds the transform between the crop described by center/scale
// (source image pixels) and a network input of the given size.
//
// Three point pairs are used: the centers, a point half a crop width above each center
// (rotated by rotationDeg on the source side), and a third point perpendicular to the first two.
// With inverse set the transform maps network input pixels back to source pixels.
// shift moves the source center by a fraction of the crop size.
//
// A singular configuration (zero scale) yields the zero transform.
func GetAffineTransform(center, scale Point, rotationDeg float64, output Size, shift Point, inverse bool) AffineTransform {
	scaleTmp := scale.Mul(Point{X: PixelStd, Y: PixelStd})
	srcW := scaleTmp.X
	dstW := float64(output.Width)
	dstH := float64(output.Height)

	rotRad := math.Pi * rotationDeg / 180.0
	srcDir := rotatePoint(Point{X: 0, Y: srcW * -0.5}, rotRad)
	dstDir := Point{X: 0, Y: dstW * -0.5}

	var src, dst [3]Point
	src[0] = center.Add(scaleTmp.Mul(shift))
	src[1] = center.Add(srcDir).Add(scaleTmp.Mul(shift))
	dst[0] = Point{X: dstW * 0.5, Y: dstH * 0.5}
	dst[1] = dst[0].Add(dstDir)
	src[2] = thirdPoint(src[0], src[1])
	dst[2] = thirdPoint(dst[0], dst[1])

	if inverse {
		return solveAffine(dst, src)
	}
	return solveAffine(src, dst)
}

// ApplyAffine maps a point through the transform
func ApplyAffine(p Point, t AffineTransform) Point {
	return Point{
		X: t[0][0]*p.X + t[0][1]*p.Y + t[0][2],
		Y: t[1][0]*p.X + t[1][1]*p.Y + t[1][2],
	}
}

// Invert returns the inverse transform. The second value is false when the linear part is singular.
func (t AffineTransform) Invert() (AffineTransform, bool) {
	a, b, c := t[0][0], t[0][1], t[0][2]
	d, e, f := t[1][0], t[1][1], t[1][2]
	det := a*e - b*d
	if det == 0 || !isFinite(det) {
		return AffineTransform{}, false
	}
	ia := e / det
	ib := -b / det
	id := -d / det
	ie := a / det
	return AffineTransform{
		{ia, ib, -(ia*c + ib*f)},
		{id, ie, -(id*c + ie*f)},
	}, true
}

// rotatePoint rotates p around the origin by rad radians
func rotatePoint(p Point, rad float64) Point {
	sin, cos := math.Sin(rad), math.Cos(rad)
	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// thirdPoint returns b + perpendicular(a - b)
func thirdPoint(a, b Point) Point {
	direct := a.Sub(b)
	return b.Add(Point{X: -direct.Y, Y: direct.X})
}

// solveAffine finds M such that M*[from_i, 1] = to_i for the three point pairs
func solveAffine(from, to [3]Point) AffineTransform {
	a := mat.NewDense(6, 6, nil)
	b := mat.NewVecDense(6, nil)
	for i := 0; i < 3; i++ {
		a.SetRow(2*i, []float64{from[i].X, from[i].Y, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, from[i].X, from[i].Y, 1})
		b.SetVec(2*i, to[i].X)
		b.SetVec(2*i+1, to[i].Y)
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return AffineTransform{}
	}
	var t AffineTransform
	for i := 0; i < 6; i++ {
		v := x.AtVec(i)
		if !isFinite(v) {
			return AffineTransform{}
		}
		t[i/3][i%3] = v
	}
	return t
}
