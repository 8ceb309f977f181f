package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/LdDl/pose-go/internal/logger"
	"gopkg.in/yaml.v3"
)

// EnvProgressInterval overrides pipeline.progress_interval
const EnvProgressInterval = "POSE_PROGRESS_INTERVAL"

// EnvLogLevel overrides log.level
const EnvLogLevel = "POSE_LOG_LEVEL"

// Config represents the application configuration
type Config struct {
	Log      logger.LogConfig `yaml:"log"`
	Pipeline PipelineConfig   `yaml:"pipeline"`
	Server   ServerConfig     `yaml:"server"`
	Export   ExportConfig     `yaml:"export"`
}

// PipelineConfig mirrors pipeline.Options in YAML form
type PipelineConfig struct {
	BodyProfile      string        `yaml:"body_profile"`
	PersonMode       string        `yaml:"person_mode"`
	Smooth           SmoothConfig  `yaml:"smooth"`
	Lift             LiftConfig    `yaml:"lift"`
	InputWidth       int           `yaml:"input_width"`
	InputHeight      int           `yaml:"input_height"`
	Workers          int           `yaml:"workers"`
	ProgressInterval int           `yaml:"progress_interval"`
	Tracker          TrackerConfig `yaml:"tracker"`
}

// SmoothConfig selects the temporal filter. Strength is a pointer since 0 is a valid value.
type SmoothConfig struct {
	Type     string   `yaml:"type"`
	Strength *float64 `yaml:"strength"`
}

// LiftConfig controls 3D lifting
type LiftConfig struct {
	Enabled         *bool  `yaml:"enabled"`
	Model           string `yaml:"model"`
	ReceptiveFrames int    `yaml:"receptive_frames"`
	ScaleToRig      *bool  `yaml:"scale_to_rig"`
}

// TrackerConfig contains ByteTrack parameters for multi person mode
type TrackerConfig struct {
	Algorithm      string  `yaml:"algorithm"`
	MaxDisappeared int     `yaml:"max_disappeared"`
	MinIoU         float64 `yaml:"min_iou"`
	HighThresh     float64 `yaml:"high_thresh"`
	LowThresh      float64 `yaml:"low_thresh"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// ExportConfig contains skeleton video and diagnostics output settings
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Codec  string `yaml:"codec"`
	Report bool   `yaml:"report"`
}

// Default returns a configuration with every default applied, for running without a file
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses the configuration file, applies defaults and environment overrides
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration, applies defaults and environment overrides
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}

	p := &c.Pipeline
	if p.BodyProfile == "" {
		p.BodyProfile = "vitpose_body_17"
	}
	if p.PersonMode == "" {
		p.PersonMode = "single"
	}
	if p.Smooth.Type == "" {
		p.Smooth.Type = "oneEuro"
	}
	if p.Smooth.Strength == nil {
		strength := 0.6
		p.Smooth.Strength = &strength
	}
	if p.Lift.Enabled == nil {
		enabled := true
		p.Lift.Enabled = &enabled
	}
	if p.Lift.Model == "" {
		p.Lift.Model = "videopose3d"
	}
	if p.Lift.ReceptiveFrames == 0 {
		p.Lift.ReceptiveFrames = 27
	}
	if p.Lift.ScaleToRig == nil {
		scale := true
		p.Lift.ScaleToRig = &scale
	}
	if p.InputWidth == 0 {
		p.InputWidth = 192
	}
	if p.InputHeight == 0 {
		p.InputHeight = 256
	}
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.ProgressInterval == 0 {
		p.ProgressInterval = 10
	}
	if p.Tracker.Algorithm == "" {
		p.Tracker.Algorithm = "hungarian"
	}
	if p.Tracker.MaxDisappeared == 0 {
		p.Tracker.MaxDisappeared = 5
	}
	if p.Tracker.MinIoU == 0 {
		p.Tracker.MinIoU = 0.3
	}
	if p.Tracker.HighThresh == 0 {
		p.Tracker.HighThresh = 0.5
	}
	if p.Tracker.LowThresh == 0 {
		p.Tracker.LowThresh = 0.3
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 512 << 20
	}

	if c.Export.Dir == "" {
		c.Export.Dir = "./out"
	}
	if c.Export.Codec == "" {
		c.Export.Codec = "avc1"
	}
}

// applyEnv overrides values from the environment
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvProgressInterval); v != "" {
		interval, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvProgressInterval, v, err)
		}
		c.Pipeline.ProgressInterval = interval
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}
