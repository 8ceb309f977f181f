package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LdDl/pose-go/mot"
	"github.com/LdDl/pose-go/pipeline"
	"github.com/LdDl/pose-go/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "vitpose_body_17", cfg.Pipeline.BodyProfile)
	assert.Equal(t, "oneEuro", cfg.Pipeline.Smooth.Type)
	require.NotNil(t, cfg.Pipeline.Smooth.Strength)
	assert.Equal(t, 0.6, *cfg.Pipeline.Smooth.Strength)
	assert.Equal(t, 10, cfg.Pipeline.ProgressInterval)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "avc1", cfg.Export.Codec)
}

func TestLoad_ExplicitZeroStrength(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  body_profile: vitpose_wholebody_133
  person_mode: multi
  smooth:
    type: savgol
    strength: 0
  lift:
    enabled: false
  tracker:
    algorithm: greedy
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	opts, err := cfg.PipelineOptions()
	require.NoError(t, err)
	assert.Equal(t, pose.ProfileWholeBody133, opts.BodyProfile)
	assert.Equal(t, pipeline.PersonMulti, opts.PersonMode)
	assert.Equal(t, pose.SmoothOptions{Mode: pose.SmoothSavgol, Strength: 0}, opts.Smooth)
	assert.Nil(t, opts.Lift)
	assert.Equal(t, mot.MatchingAlgorithmGreedy, opts.Tracker.Algorithm)
	assert.Equal(t, pose.DefaultInputSize, opts.InputSize)
	assert.NoError(t, opts.Validate())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "pipeline: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "xml"
	cfg.Pipeline.Smooth.Type = "kalman"
	bad := 1.5
	cfg.Pipeline.Smooth.Strength = &bad
	cfg.Pipeline.Tracker.LowThresh = 0.9
	cfg.Export.Codec = "h264x"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "log.format")
	assert.Contains(t, msg, "pipeline.smooth.type")
	assert.Contains(t, msg, "pipeline.smooth.strength")
	assert.Contains(t, msg, "low_thresh")
	assert.Contains(t, msg, "export.codec")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvProgressInterval, "25")
	t.Setenv(EnvLogLevel, "debug")
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Pipeline.ProgressInterval)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv(EnvProgressInterval, "often")
	_, err = Parse([]byte("{}"))
	assert.Error(t, err)
}

func TestDefault_PipelineOptions(t *testing.T) {
	opts, err := Default().PipelineOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Lift)
	assert.Equal(t, pose.LiftModelVideoPose3D, opts.Lift.Model)
	assert.Equal(t, 27, opts.Lift.ReceptiveFrames)
	assert.True(t, opts.Lift.ScaleToRig)
	assert.Equal(t, pipeline.PersonSingle, opts.PersonMode)
	assert.NoError(t, opts.Validate())
}
