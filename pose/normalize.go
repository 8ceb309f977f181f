package pose

// ToUnit maps pixel coordinates into the signed unit square: origin at the image center, y up
func ToUnit(x, y, width, height float64) (float64, float64) {
	nx := (x/width)*2.0 - 1.0
	ny := 1.0 - (y/height)*2.0
	return nx, ny
}

// FromUnit is the inverse of ToUnit
func FromUnit(nx, ny, width, height float64) (float64, float64) {
	x := (nx + 1.0) * 0.5 * width
	y := (1.0 - ny) * 0.5 * height
	return x, y
}

// NormalizePose converts a pixel-space pose into unit space. Missing joints are kept as they are.
func NormalizePose(p Pose, width, height float64) Pose {
	out := make(Pose, len(p))
	for jid, kp := range p {
		if kp.IsMissing() {
			out[jid] = kp
			continue
		}
		nx, ny := ToUnit(kp.X, kp.Y, width, height)
		out[jid] = Keypoint2D{X: nx, Y: ny, C: kp.C}
	}
	return out
}

// DenormalizePose converts a unit-space pose back into pixels
func DenormalizePose(p Pose, width, height float64) Pose {
	out := make(Pose, len(p))
	for jid, kp := range p {
		if kp.IsMissing() {
			out[jid] = kp
			continue
		}
		x, y := FromUnit(kp.X, kp.Y, width, height)
		out[jid] = Keypoint2D{X: x, Y: y, C: kp.C}
	}
	return out
}
