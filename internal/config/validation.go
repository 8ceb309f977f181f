package config

import (
	"fmt"
	"strings"

	"github.com/LdDl/pose-go/mot"
	"github.com/LdDl/pose-go/pipeline"
	"github.com/LdDl/pose-go/pose"
)

// Validate validates the configuration and reports every problem at once
func (c *Config) Validate() error {
	var errors []string

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errors = append(errors, fmt.Sprintf("invalid log.level: %s (must be: debug, info, warn, error)", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log.format: %s (must be: text or json)", c.Log.Format))
	}

	p := c.Pipeline
	if _, err := pose.ParseBodyProfile(p.BodyProfile); err != nil {
		errors = append(errors, fmt.Sprintf("invalid pipeline.body_profile: %s", p.BodyProfile))
	}
	if _, err := pipeline.ParsePersonMode(p.PersonMode); err != nil {
		errors = append(errors, fmt.Sprintf("invalid pipeline.person_mode: %s (must be: single or multi)", p.PersonMode))
	}
	if _, err := pose.ParseSmoothMode(p.Smooth.Type); err != nil {
		errors = append(errors, fmt.Sprintf("invalid pipeline.smooth.type: %s (must be: oneEuro or savgol)", p.Smooth.Type))
	}
	if p.Smooth.Strength != nil && (*p.Smooth.Strength < 0 || *p.Smooth.Strength > 1) {
		errors = append(errors, fmt.Sprintf("pipeline.smooth.strength must be between 0 and 1, got: %.2f", *p.Smooth.Strength))
	}
	if p.Lift.Enabled != nil && *p.Lift.Enabled && p.Lift.Model != pose.LiftModelVideoPose3D {
		errors = append(errors, fmt.Sprintf("invalid pipeline.lift.model: %s (must be: %s)", p.Lift.Model, pose.LiftModelVideoPose3D))
	}
	if p.InputWidth <= 0 || p.InputHeight <= 0 {
		errors = append(errors, fmt.Sprintf("pipeline input size must be positive, got: %dx%d", p.InputWidth, p.InputHeight))
	}
	if p.Workers <= 0 {
		errors = append(errors, fmt.Sprintf("pipeline.workers must be > 0, got: %d", p.Workers))
	}
	if p.ProgressInterval < 0 {
		errors = append(errors, fmt.Sprintf("pipeline.progress_interval must be >= 0, got: %d", p.ProgressInterval))
	}
	if _, err := mot.ParseMatchingAlgorithm(p.Tracker.Algorithm); err != nil {
		errors = append(errors, fmt.Sprintf("invalid pipeline.tracker.algorithm: %s (must be: hungarian or greedy)", p.Tracker.Algorithm))
	}
	if p.Tracker.LowThresh > p.Tracker.HighThresh {
		errors = append(errors, fmt.Sprintf("pipeline.tracker.low_thresh (%.2f) cannot be greater than high_thresh (%.2f)", p.Tracker.LowThresh, p.Tracker.HighThresh))
	}
	if p.Tracker.MaxDisappeared <= 0 {
		errors = append(errors, fmt.Sprintf("pipeline.tracker.max_disappeared must be > 0, got: %d", p.Tracker.MaxDisappeared))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("server.port must be between 0 and 65535, got: %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errors = append(errors, fmt.Sprintf("server.max_body_bytes must be > 0, got: %d", c.Server.MaxBodyBytes))
	}
	if len(c.Export.Codec) != 4 {
		errors = append(errors, fmt.Sprintf("export.codec must be a fourcc, got: %q", c.Export.Codec))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// PipelineOptions converts the pipeline section into pipeline.Options
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	p := c.Pipeline
	profile, err := pose.ParseBodyProfile(p.BodyProfile)
	if err != nil {
		return pipeline.Options{}, err
	}
	mode, err := pipeline.ParsePersonMode(p.PersonMode)
	if err != nil {
		return pipeline.Options{}, err
	}
	smoothMode, err := pose.ParseSmoothMode(p.Smooth.Type)
	if err != nil {
		return pipeline.Options{}, err
	}
	algorithm, err := mot.ParseMatchingAlgorithm(p.Tracker.Algorithm)
	if err != nil {
		return pipeline.Options{}, err
	}
	strength := 0.6
	if p.Smooth.Strength != nil {
		strength = *p.Smooth.Strength
	}
	opts := pipeline.Options{
		BodyProfile:      profile,
		PersonMode:       mode,
		Smooth:           pose.SmoothOptions{Mode: smoothMode, Strength: strength},
		InputSize:        pose.Size{Width: p.InputWidth, Height: p.InputHeight},
		Workers:          p.Workers,
		ProgressInterval: p.ProgressInterval,
		Tracker: mot.ByteTrackerOptions{
			MaxDisappeared: p.Tracker.MaxDisappeared,
			MinIoU:         p.Tracker.MinIoU,
			HighThresh:     p.Tracker.HighThresh,
			LowThresh:      p.Tracker.LowThresh,
			Algorithm:      algorithm,
		},
	}
	if p.Lift.Enabled == nil || *p.Lift.Enabled {
		opts.Lift = &pose.LiftOptions{
			Model:           p.Lift.Model,
			ReceptiveFrames: p.Lift.ReceptiveFrames,
			ScaleToRig:      p.Lift.ScaleToRig == nil || *p.Lift.ScaleToRig,
		}
	}
	return opts, nil
}
