package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/LdDl/pose-go/pipeline"
	"github.com/LdDl/pose-go/pose"
	"github.com/LdDl/pose-go/render"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ExportRequest is the body of POST /api/export/skeleton. Only the first person of each frame is drawn.
// OutPath is reduced to its base name inside the export directory.
type ExportRequest struct {
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	FPS     float64            `json:"fps"`
	Bones   [][]string         `json:"bones,omitempty"`
	Frames  []pipeline.Frame2D `json:"frames"`
	OutPath string             `json:"outPath,omitempty"`
}

func (s *Server) handleExportSkeleton(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	bones := render.BonesFrom(req.Bones)
	if len(bones) == 0 {
		bones = render.DefaultBones(s.defaults.BodyProfile)
	}
	name := "out.mp4"
	if req.OutPath != "" {
		name = filepath.Base(req.OutPath)
	}
	path := filepath.Join(s.export.Dir, name)

	out, err := render.ExportMP4(path, exportFrames(req.Frames), req.Width, req.Height, req.FPS, bones, s.export.Codec)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrNoFrames) || errors.Is(err, pose.ErrInput) {
			status = http.StatusBadRequest
		}
		s.logger.Error("Skeleton export failed", "path", path, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("Skeleton exported", "path", out, "frames", len(req.Frames))
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": out})
}

// exportFrames takes the first person of every frame; frames without people stay empty
func exportFrames(frames []pipeline.Frame2D) []pose.Pose {
	out := make([]pose.Pose, len(frames))
	for i, frame := range frames {
		if len(frame.Persons) == 0 {
			out[i] = pose.Pose{}
			continue
		}
		out[i] = pipeline.PoseFromFrame(frame.Persons[0])
	}
	return out
}
