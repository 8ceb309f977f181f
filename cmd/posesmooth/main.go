package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/LdDl/pose-go/internal/config"
	"github.com/LdDl/pose-go/internal/logger"
	"github.com/LdDl/pose-go/pipeline"
	"github.com/LdDl/pose-go/pose"
	"github.com/LdDl/pose-go/render"
	"github.com/LdDl/pose-go/report"
)

var (
	configPath string
	inPath     string
	outPath    string
	smoothType string
	strength   float64
	personMode string
	noLift     bool
	videoPath  string
	reportDir  string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&inPath, "in", "-", "Input JSON with detections per frame ('-' for stdin)")
	flag.StringVar(&outPath, "out", "-", "Output JSON path ('-' for stdout)")
	flag.StringVar(&smoothType, "smooth", "", "Smoother: oneEuro or savgol (default from config)")
	flag.Float64Var(&strength, "strength", -1, "Smoothing strength in [0, 1] (negative keeps the config value)")
	flag.StringVar(&personMode, "person", "", "Person mode: single or multi (default from config)")
	flag.BoolVar(&noLift, "no-lift", false, "Disable 3D lifting")
	flag.StringVar(&videoPath, "video", "", "Render the first track as a skeleton video to this path")
	flag.StringVar(&reportDir, "report", "", "Write per joint raw vs smoothed plots of the first track to this directory")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	// stdout may carry the result
	if outPath == "-" && (cfg.Log.Output == "" || cfg.Log.Output == "stdout") {
		cfg.Log.Output = "stderr"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse([]byte("{}"))
	}
	return config.Load(path)
}

func applyFlags(cfg *config.Config) {
	if smoothType != "" {
		cfg.Pipeline.Smooth.Type = smoothType
	}
	if strength >= 0 {
		s := strength
		cfg.Pipeline.Smooth.Strength = &s
	}
	if personMode != "" {
		cfg.Pipeline.PersonMode = personMode
	}
	if noLift {
		disabled := false
		cfg.Pipeline.Lift.Enabled = &disabled
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	in, err := readInput(inPath)
	if err != nil {
		return err
	}
	if in.BodyProfile != "" {
		cfg.Pipeline.BodyProfile = in.BodyProfile
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	p, err := pipeline.New(opts, log.Named("pipeline").Logger)
	if err != nil {
		return err
	}

	start := time.Now()
	log.Info("Read input", "frames", len(in.Frames), "width", in.Width, "height", in.Height)
	result, raw, err := p.ProcessWithRaw(context.Background(), in)
	if err != nil {
		return err
	}
	if err := writeResult(outPath, result); err != nil {
		return err
	}
	log.Info("Processed", "frames", len(result.Kpts2D), "tracks", len(raw), "took", time.Since(start))

	id, ok := firstTrack(raw)
	if !ok {
		return nil
	}
	smoothed := result.PersonTrack(id)

	if videoPath != "" {
		fps := result.Meta.EffectiveFPS
		out, err := render.ExportMP4(videoPath, smoothed.Frames, in.Width, in.Height, fps, render.DefaultBones(opts.BodyProfile), cfg.Export.Codec)
		if err != nil {
			return err
		}
		log.Info("Skeleton video written", "path", out)
	}
	if reportDir != "" {
		if err := writeReport(reportDir, raw[id], smoothed, log); err != nil {
			return err
		}
	}
	return nil
}

func readInput(path string) (*pipeline.Input, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var in pipeline.Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return &in, nil
}

func writeResult(path string, result *pipeline.Result) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// firstTrack picks the single person track, or the smallest id in multi person mode
func firstTrack(raw map[string]pose.Track) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[0], true
}

func writeReport(dir string, raw, smoothed pose.Track, log *logger.Logger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	var plotted []string
	for _, joint := range raw.Joints {
		path := filepath.Join(dir, joint+".png")
		if err := report.PlotJoint(raw, smoothed, joint, path); err != nil {
			log.Debug("Joint skipped", "joint", joint, "error", err)
			continue
		}
		plotted = append(plotted, joint)
	}
	f, err := os.Create(filepath.Join(dir, "joints.html"))
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer f.Close()
	if err := report.JointChart(f, raw, smoothed, plotted); err != nil {
		return err
	}
	log.Info("Report written", "dir", dir, "joints", len(plotted))
	return nil
}
