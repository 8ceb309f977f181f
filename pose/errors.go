package pose

import "github.com/pkg/errors"

var (
	// ErrShape is returned for malformed heatmap tensors and batch size mismatches
	ErrShape = errors.New("invalid tensor shape")
	// ErrUnknownSmoothMode is returned for smoothing modes other than oneEuro and savgol
	ErrUnknownSmoothMode = errors.New("unknown smoothing mode")
	// ErrUnknownProfile is returned for body profiles without a joint table
	ErrUnknownProfile = errors.New("unknown body profile")
	// ErrUnknownLiftModel is returned for unsupported 3D lifting models
	ErrUnknownLiftModel = errors.New("unknown lift model")
	// ErrInput is returned for other caller contract violations
	ErrInput = errors.New("invalid input")
)
