// Package pipeline wires adapters and workspace directories around the
// core use case for one invocation.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipmoment/clipmoment/internal/domain/policy"
	"github.com/clipmoment/clipmoment/internal/domain/transcript"
	"github.com/clipmoment/clipmoment/internal/ports/adapters/ffmpeg"
	"github.com/clipmoment/clipmoment/internal/ports/adapters/pigoface"
	"github.com/clipmoment/clipmoment/internal/render"
	"github.com/clipmoment/clipmoment/internal/thumbnail"
	"github.com/clipmoment/clipmoment/internal/types"
	"github.com/clipmoment/clipmoment/internal/usecase"
)

type Config struct {
	Input        string
	AnalysisPath string

	// TranscriptPath optionally points at a whisper-shaped JSON transcript
	// used for aligned excerpts.
	TranscriptPath string

	Aspect string
	Bucket string

	// TotalDurationSec overrides probing when > 0.
	TotalDurationSec int

	OutDir   string
	CacheDir string
	Workers  int

	FFmpegPath  string
	FFprobePath string

	// CascadePath enables face thumbnails; empty leaves clips without
	// thumbnails, which is a supported mode.
	CascadePath string

	TranscodeTimeout time.Duration

	Log zerolog.Logger
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.AnalysisPath == "" {
		return errors.New("analysis file is required")
	}
	if _, err := os.Stat(c.AnalysisPath); err != nil {
		return fmt.Errorf("stat analysis: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return nil
}

// Run executes one full invocation: workspace setup, adapter wiring, the
// core use case, and the manifest write. Temporary artifacts live in a
// per-invocation directory removed on every exit path.
func Run(ctx context.Context, cfg Config) (types.Manifest, error) {
	log := cfg.Log

	if !policy.Known(cfg.Bucket) {
		log.Warn().Str("bucket", cfg.Bucket).Str("default", policy.DefaultBucket).Msg("unknown duration bucket, using default")
	}
	if !render.KnownAspect(cfg.Aspect) {
		log.Warn().Str("aspect", cfg.Aspect).Msg("unknown aspect token, using 16:9")
	}

	rawAnalysis, err := os.ReadFile(cfg.AnalysisPath)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("read analysis: %w", err)
	}

	var tr types.Transcript
	if cfg.TranscriptPath != "" {
		tr, err = transcript.Load(cfg.TranscriptPath)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("load transcript: %w", err)
		}
	}

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	if err := os.MkdirAll(baseCache, 0o755); err != nil {
		return types.Manifest{}, err
	}
	// Scoped scratch space: never shared across invocations, always
	// removed, even on cancellation or partial failure.
	workDir, err := os.MkdirTemp(baseCache, "run-")
	if err != nil {
		return types.Manifest{}, err
	}
	defer os.RemoveAll(workDir)
	log.Debug().Str("workdir", workDir).Msg("workspace prepared")

	outRoot := cfg.OutDir
	if outRoot == "" {
		outRoot = "out"
	}
	runOutDir := buildRunOutDir(outRoot, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return types.Manifest{}, err
	}
	log.Info().Str("out", runOutDir).Msg("output directory ready")

	video := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	renderer := render.New(video, log, cfg.TranscodeTimeout)

	var thumbs usecase.ThumbnailSelector
	if cfg.CascadePath != "" {
		detector, err := pigoface.New(cfg.CascadePath)
		if err != nil {
			log.Warn().Err(err).Msg("face cascade unavailable, thumbnails disabled")
		} else {
			thumbs = thumbnail.New(video, detector, log)
		}
	}

	uc := usecase.New(usecase.Deps{
		Prober:      video,
		Renderer:    renderer,
		Thumbnailer: thumbs,
		Log:         log,
	})

	res, runErr := uc.Run(ctx, usecase.Input{
		SourceMedia:      cfg.Input,
		AnalysisText:     string(rawAnalysis),
		TotalDurationSec: cfg.TotalDurationSec,
		Aspect:           cfg.Aspect,
		Bucket:           cfg.Bucket,
		OutDir:           runOutDir,
		WorkDir:          workDir,
		Transcript:       tr,
		FullText:         joinTranscript(tr),
		Workers:          cfg.Workers,
	})
	// Partial results are worth keeping: the manifest is written for
	// whatever rendered before a cancellation.
	if len(res.Manifest.Clips) > 0 || runErr == nil {
		if err := writeManifest(runOutDir, res.Manifest); err != nil {
			if runErr == nil {
				runErr = err
			}
			log.Warn().Err(err).Msg("manifest not written")
		} else {
			log.Info().Int("clips", len(res.Manifest.Clips)).Str("manifest", filepath.Join(runOutDir, "manifest.json")).Msg("manifest written")
		}
	}
	return res.Manifest, runErr
}

func writeManifest(runOutDir string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(runOutDir, "manifest.json"), b, 0o644)
}

func joinTranscript(tr types.Transcript) string {
	var parts []string
	for _, s := range tr.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// buildRunOutDir derives a per-run output directory: slugged input name,
// UTC timestamp, and a short hash so two runs in the same second do not
// collide.
func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = render.SanitizeTitle(name)
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, hash(runSeed)[:6]))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
