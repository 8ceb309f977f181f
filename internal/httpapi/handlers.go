package httpapi

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/LdDl/pose-go/pipeline"
	"github.com/LdDl/pose-go/pose"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// SmoothParams selects the filter of a request
type SmoothParams struct {
	Type     string   `json:"type"`
	Strength *float64 `json:"strength,omitempty"`
}

// ProcessOptions overrides the server defaults for one request. Empty fields keep the default.
type ProcessOptions struct {
	Smooth      *SmoothParams `json:"smooth,omitempty"`
	Lift3D      *bool         `json:"lift3D,omitempty"`
	PersonMode  string        `json:"personMode,omitempty"`
	BodyProfile string        `json:"bodyProfile,omitempty"`
}

// ProcessRequest is the body of POST /api/process
type ProcessRequest struct {
	Options *ProcessOptions `json:"options,omitempty"`
	Input   pipeline.Input  `json:"input"`
}

// SmoothRequest is the body of POST /api/smooth. Frames missing a joint are gaps.
type SmoothRequest struct {
	FPS    float64                        `json:"fps"`
	Smooth SmoothParams                   `json:"smooth"`
	Space  string                         `json:"space,omitempty"`
	Frames []map[string]pipeline.Keypoint `json:"frames"`
}

// SmoothResponse is the answer of POST /api/smooth
type SmoothResponse struct {
	FPS    float64                        `json:"fps"`
	Space  string                         `json:"space"`
	Smooth pipeline.SmoothMeta            `json:"smooth"`
	Frames []map[string]pipeline.Keypoint `json:"frames"`
}

func (s *Server) handleHealth(c *gin.Context) {
	uptime := time.Since(s.startTime)
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "poseserver",
		"uptime_seconds": int64(uptime.Seconds()),
		"pipelines":      s.cache.Len(),
	})
}

func (s *Server) handleMapping(c *gin.Context) {
	profile := c.Param("profile")
	jm, err := pose.JointMapFor(pose.BodyProfile(profile))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"joints":  jm.IDs(),
		"mapping": jm.Export(),
	})
}

func (s *Server) handleProcess(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	opts, err := s.requestOptions(req.Options, req.Input.BodyProfile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.cache.Get(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := p.Process(c.Request.Context(), &req.Input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// requestOptions applies the per request overrides on top of the defaults.
// The input's own body profile is used when the options do not name one.
func (s *Server) requestOptions(o *ProcessOptions, inputProfile string) (pipeline.Options, error) {
	opts := s.defaults
	if o == nil {
		o = &ProcessOptions{}
	}
	profile := o.BodyProfile
	if profile == "" {
		profile = inputProfile
	}
	if profile != "" {
		parsed, err := pose.ParseBodyProfile(profile)
		if err != nil {
			return opts, err
		}
		opts.BodyProfile = parsed
	}
	if o.PersonMode != "" {
		mode, err := pipeline.ParsePersonMode(o.PersonMode)
		if err != nil {
			return opts, err
		}
		opts.PersonMode = mode
	}
	if o.Smooth != nil {
		smooth, err := smoothOptions(*o.Smooth, opts.Smooth)
		if err != nil {
			return opts, err
		}
		opts.Smooth = smooth
	}
	if o.Lift3D != nil {
		if !*o.Lift3D {
			opts.Lift = nil
		} else if opts.Lift == nil {
			lift := pose.DefaultLiftOptions()
			opts.Lift = &lift
		}
	}
	return opts, nil
}

func smoothOptions(params SmoothParams, base pose.SmoothOptions) (pose.SmoothOptions, error) {
	out := base
	if params.Type != "" {
		mode, err := pose.ParseSmoothMode(params.Type)
		if err != nil {
			return out, err
		}
		out.Mode = mode
	}
	if params.Strength != nil {
		out.Strength = *params.Strength
	}
	return out, out.Validate()
}

func (s *Server) handleSmooth(c *gin.Context) {
	var req SmoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	opts, err := smoothOptions(req.Smooth, s.defaults.Smooth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	space := pose.SpaceUnit
	switch req.Space {
	case "", "unit":
	case "pixel":
		space = pose.SpacePixel
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "space must be 'unit' or 'pixel'"})
		return
	}
	fps := req.FPS
	if !(fps > 0) {
		fps = pipeline.DefaultFPS
	}

	track := trackFromFrames(req.Frames, space)
	smoothed, err := pose.Smooth(track, fps, opts)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	resp := SmoothResponse{
		FPS:    fps,
		Space:  space.String(),
		Smooth: pipeline.SmoothMeta{Type: string(opts.Mode), Strength: opts.Strength},
		Frames: make([]map[string]pipeline.Keypoint, len(smoothed.Frames)),
	}
	for i, frame := range smoothed.Frames {
		out := make(map[string]pipeline.Keypoint, len(frame))
		for jid, kp := range frame {
			out[jid] = pipeline.Keypoint{X: kp.X, Y: kp.Y, C: kp.C}
		}
		resp.Frames[i] = out
	}
	c.JSON(http.StatusOK, resp)
}

// trackFromFrames builds a track whose joints are every id seen in any frame, sorted
func trackFromFrames(frames []map[string]pipeline.Keypoint, space pose.Space) pose.Track {
	seen := make(map[string]struct{})
	track := pose.Track{
		Space:  space,
		Frames: make([]pose.Pose, len(frames)),
	}
	for i, frame := range frames {
		track.Frames[i] = pipeline.PoseFromFrame(frame)
		for jid := range frame {
			seen[jid] = struct{}{}
		}
	}
	track.Joints = make([]string, 0, len(seen))
	for jid := range seen {
		track.Joints = append(track.Joints, jid)
	}
	sort.Strings(track.Joints)
	return track
}

// statusFor maps pipeline errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, pose.ErrInput), errors.Is(err, pose.ErrShape),
		errors.Is(err, pose.ErrUnknownSmoothMode), errors.Is(err, pose.ErrUnknownProfile):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
