package pipeline

import (
	"github.com/LdDl/pose-go/pose"
)

// Input is one video worth of detector and pose network output
type Input struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	FPS         float64      `json:"fps"`
	BodyProfile string       `json:"bodyProfile,omitempty"`
	Frames      []InputFrame `json:"frames"`
}

// InputFrame holds every person detected in one frame
type InputFrame struct {
	Frame   int         `json:"frame"`
	Persons []Detection `json:"persons"`
}

// Detection is one person: its box plus either decoded keypoints or raw heatmaps.
// Keypoints are [x, y, confidence] in frame pixels, in backend joint index order.
type Detection struct {
	Box       [4]float64    `json:"box"`
	Score     *float64      `json:"score,omitempty"`
	Keypoints [][3]float64  `json:"keypoints,omitempty"`
	Heatmaps  *HeatmapInput `json:"heatmaps,omitempty"`
}

// HeatmapInput is a [K][Height][Width] row-major grid set, K being the joint count of the body profile
type HeatmapInput struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Data   []float64 `json:"data"`
}

// Keypoint is a unit-space 2D joint
type Keypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	C float64 `json:"c"`
}

// Keypoint3D is a lifted joint
type Keypoint3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	C float64 `json:"c"`
}

// Frame2D is the output of one frame. Frames without people carry a single empty person.
// IDs is filled in multi person mode only and is aligned with Persons.
type Frame2D struct {
	Frame   int                   `json:"frame"`
	Time    float64               `json:"time"`
	Persons []map[string]Keypoint `json:"persons"`
	IDs     []string              `json:"ids,omitempty"`
}

// Frame3D is the lifted output of one frame
type Frame3D struct {
	Frame   int                     `json:"frame"`
	Persons []map[string]Keypoint3D `json:"persons"`
}

// SourceMeta describes the input video
type SourceMeta struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
	Frames int     `json:"frames"`
}

// SmoothMeta echoes the smoothing configuration
type SmoothMeta struct {
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}

// Meta describes how the result was produced
type Meta struct {
	Source       SourceMeta        `json:"source"`
	EffectiveFPS float64           `json:"effectiveFps"`
	BodyProfile  string            `json:"bodyProfile"`
	PersonMode   string            `json:"personMode"`
	Mapping      map[string]string `json:"mapping"`
	Smooth       SmoothMeta        `json:"smooth"`
}

// Result is the processed video: unit-space 2D keypoints per frame and optional 3D keypoints
type Result struct {
	Meta   Meta      `json:"meta"`
	Kpts2D []Frame2D `json:"kpts2d"`
	Kpts3D []Frame3D `json:"kpts3d"`
}

func toKeypoint(kp pose.Keypoint2D) Keypoint {
	return Keypoint{X: kp.X, Y: kp.Y, C: kp.C}
}

func fromKeypoint(kp Keypoint) pose.Keypoint2D {
	return pose.Keypoint2D{X: kp.X, Y: kp.Y, C: kp.C}
}

// PoseFromFrame converts one output person into a pose
func PoseFromFrame(person map[string]Keypoint) pose.Pose {
	p := make(pose.Pose, len(person))
	for jid, kp := range person {
		p[jid] = fromKeypoint(kp)
	}
	return p
}

// FirstPersonTrack collects the first person of every frame into a unit-space track.
// Frames without people become empty poses.
func (r *Result) FirstPersonTrack() pose.Track {
	jm, err := pose.JointMapFor(pose.BodyProfile(r.Meta.BodyProfile))
	var joints []string
	if err == nil {
		joints = jm.IDs()
	}
	track := pose.Track{
		Space:  pose.SpaceUnit,
		Joints: joints,
		Frames: make([]pose.Pose, len(r.Kpts2D)),
	}
	for i, frame := range r.Kpts2D {
		if len(frame.Persons) == 0 {
			track.Frames[i] = pose.Pose{}
			continue
		}
		track.Frames[i] = PoseFromFrame(frame.Persons[0])
	}
	return track
}

// PersonTrack collects one person over every frame. id is a Frame2D.IDs value in multi person mode
// and "" in single person mode. Frames without that person become empty poses.
func (r *Result) PersonTrack(id string) pose.Track {
	if id == "" {
		return r.FirstPersonTrack()
	}
	track := r.FirstPersonTrack()
	for i, frame := range r.Kpts2D {
		track.Frames[i] = pose.Pose{}
		for j, personID := range frame.IDs {
			if personID == id && j < len(frame.Persons) {
				track.Frames[i] = PoseFromFrame(frame.Persons[j])
				break
			}
		}
	}
	return track
}
