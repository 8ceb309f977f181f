package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/pose-go/internal/config"
	"github.com/LdDl/pose-go/internal/httpapi"
	"github.com/LdDl/pose-go/internal/logger"
	"github.com/LdDl/pose-go/pipeline"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (short)")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting pose server",
		"version", version,
		"build_time", buildTime,
	)

	opts, err := cfg.PipelineOptions()
	if err != nil {
		log.Error("Bad pipeline options", "error", err)
		os.Exit(1)
	}
	cache := pipeline.NewCache(log.Named("pipeline").Logger)
	if _, err := cache.Get(opts); err != nil {
		log.Error("Can't build default pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(cfg, opts, cache, log.Named("http"))
	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}

// loadConfig reads the file when given; otherwise defaults with environment overrides are used
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse([]byte("{}"))
	}
	return config.Load(path)
}
