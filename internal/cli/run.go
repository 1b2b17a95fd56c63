package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipmoment/clipmoment/internal/config"
	"github.com/clipmoment/clipmoment/internal/logging"
	"github.com/clipmoment/clipmoment/internal/pipeline"
)

func run(cmd *cobra.Command, input string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logging.Init(verbose)
	log := logging.New()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	analysisPath, _ := cmd.Flags().GetString("analysis")
	transcriptPath, _ := cmd.Flags().GetString("transcript")
	aspect := flagOrDefault(cmd, "aspect", cfg.DefaultAspect)
	bucket := flagOrDefault(cmd, "duration", cfg.DefaultBucket)
	outDir := flagOrDefault(cmd, "out", cfg.OutDir)
	cascade := flagOrDefault(cmd, "cascade", cfg.CascadePath)
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.Workers
	}
	totalSec, _ := cmd.Flags().GetInt("total-sec")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{
		Input:            absIn,
		AnalysisPath:     analysisPath,
		TranscriptPath:   transcriptPath,
		Aspect:           aspect,
		Bucket:           bucket,
		TotalDurationSec: totalSec,
		OutDir:           outDir,
		CacheDir:         cfg.CacheDir,
		Workers:          workers,
		FFmpegPath:       cfg.FFmpegPath,
		FFprobePath:      cfg.FFprobePath,
		CascadePath:      cascade,
		TranscodeTimeout: time.Duration(cfg.TranscodeTimeoutSec) * time.Second,
		Log:              log,
	}
	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Ctrl-C stops scheduling new segments; clips already rendered stay on
	// disk and in the manifest.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	_, err = pipeline.Run(ctx, pcfg)
	return err
}

func flagOrDefault(cmd *cobra.Command, name, def string) string {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return def
	}
	return v
}
