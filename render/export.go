package render

import (
	"os"
	"path/filepath"

	"github.com/LdDl/pose-go/pose"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultCodec is the fourcc used for mp4 output
const DefaultCodec = "avc1"

var (
	// ErrNoFrames is returned when there is nothing to export
	ErrNoFrames = errors.New("no frames supplied for export")
	// ErrWriterUnavailable is returned when OpenCV cannot open a writer for the codec
	ErrWriterUnavailable = errors.New("video writer unavailable")
)

// ExportMP4 renders every pose on a black canvas of width x height and writes the frames as a video.
// An empty codec means DefaultCodec. The absolute output path is returned.
func ExportMP4(path string, frames []pose.Pose, width, height int, fps float64, bones []Bone, codec string) (string, error) {
	if len(frames) == 0 {
		return "", ErrNoFrames
	}
	if width <= 0 || height <= 0 {
		return "", errors.Wrapf(pose.ErrInput, "bad canvas size %dx%d", width, height)
	}
	if !(fps > 0) {
		return "", errors.Wrapf(pose.ErrInput, "bad fps %g", fps)
	}
	if codec == "" {
		codec = DefaultCodec
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "Can't resolve output path")
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", errors.Wrap(err, "Can't create output directory")
	}

	writer, err := gocv.VideoWriterFile(abs, codec, fps, width, height, true)
	if err != nil {
		return "", errors.Wrapf(ErrWriterUnavailable, "codec '%s': %s", codec, err.Error())
	}
	defer writer.Close()
	if !writer.IsOpened() {
		return "", errors.Wrapf(ErrWriterUnavailable, "codec '%s'", codec)
	}

	for i, p := range frames {
		canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
		DrawSkeleton(&canvas, p, bones)
		err := writer.Write(canvas)
		canvas.Close()
		if err != nil {
			return "", errors.Wrapf(err, "Can't write frame #%d", i)
		}
	}
	return abs, nil
}
