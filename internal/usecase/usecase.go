package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clipmoment/clipmoment/internal/domain/analysis"
	"github.com/clipmoment/clipmoment/internal/domain/policy"
	"github.com/clipmoment/clipmoment/internal/domain/selection"
	"github.com/clipmoment/clipmoment/internal/render"
	"github.com/clipmoment/clipmoment/internal/types"
)

// Fatal pipeline states. Everything else degrades to partial output.
var (
	ErrMissingSource   = errors.New("source media is required")
	ErrMissingDuration = errors.New("total video duration is unavailable")
)

// ClipRenderer renders one selected segment into a clip file.
type ClipRenderer interface {
	Render(ctx context.Context, req render.Request) (types.RenderedClip, error)
}

// ThumbnailSelector produces an optional thumbnail for a rendered clip.
type ThumbnailSelector interface {
	Select(ctx context.Context, clipPath, workDir, outPath string) (string, error)
}

// DurationProber reports the total duration of the source media, used
// when the caller does not supply one.
type DurationProber interface {
	ProbeDuration(ctx context.Context, inPath string) (float64, error)
}

type Deps struct {
	Prober      DurationProber
	Renderer    ClipRenderer
	Thumbnailer ThumbnailSelector
	Log         zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	SourceMedia  string
	AnalysisText string

	// TotalDurationSec overrides probing when > 0.
	TotalDurationSec int

	Aspect string
	Bucket string

	OutDir  string
	WorkDir string

	// Transcript is optional timestamp-aligned data for excerpt slicing.
	Transcript types.Transcript
	// FullText is the plain transcription, the excerpt of last resort.
	FullText string

	// Workers bounds parallel render/thumbnail tasks; defaults to the CPU
	// count.
	Workers int
}

type Result struct {
	Clips    []types.RenderedClip
	Manifest types.Manifest
}

// Run executes parse -> policy -> select -> render -> thumbnail for one
// video. Zero clips is a valid result: an empty analysis or a selection
// that filters everything away returns an empty Result and a nil error.
// Per-segment failures are logged and skipped; only a missing source or
// an unresolvable total duration abort the run. On cancellation the
// partial Result gathered so far is returned alongside the context error.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log.With().Str("component", "pipeline").Logger()

	if in.SourceMedia == "" {
		return Result{}, ErrMissingSource
	}

	total := in.TotalDurationSec
	if total <= 0 {
		sec, err := u.d.Prober.ProbeDuration(ctx, in.SourceMedia)
		if err != nil || sec <= 0 {
			return Result{}, fmt.Errorf("%w: %v", ErrMissingDuration, err)
		}
		total = int(sec)
	}
	log.Info().Int("total_sec", total).Msg("total duration resolved")

	// The parser tags its own component field, so it gets the untagged
	// logger.
	cands := analysis.New(u.d.Log).Parse(in.AnalysisText, total)
	log.Info().Int("candidates", len(cands)).Msg("analysis parsed")
	if len(cands) == 0 {
		return Result{Manifest: types.Manifest{Input: in.SourceMedia}}, nil
	}

	bounds := policy.Resolve(in.Bucket)
	adjusted := make([]types.SelectedSegment, 0, len(cands))
	for _, c := range cands {
		adjusted = append(adjusted, policy.Apply(c, bounds, total))
	}

	selected := selection.Select(adjusted)
	log.Info().Int("selected", len(selected)).Msg("segments selected")
	if len(selected) == 0 {
		return Result{Manifest: types.Manifest{Input: in.SourceMedia}}, nil
	}

	clips := u.renderAll(ctx, in, selected, log)

	// Completion order is nondeterministic under the worker pool; the
	// final list is always presented in timeline order.
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].Segment.AdjustedStart < clips[j].Segment.AdjustedStart
	})

	res := Result{Clips: clips, Manifest: buildManifest(in, clips)}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	log.Info().Int("clips", len(clips)).Int("skipped", len(selected)-len(clips)).Msg("pipeline finished")
	return res, nil
}

// renderAll runs render+thumbnail per selected segment on a bounded pool.
// A failed segment leaves a gap, never aborts its siblings.
func (u Usecase) renderAll(ctx context.Context, in Input, selected []types.SelectedSegment, log zerolog.Logger) []types.RenderedClip {
	workers := in.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*types.RenderedClip, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, seg := range selected {
		i, seg := i, seg
		g.Go(func() error {
			// Cancellation stops scheduling; tasks already past this point
			// run to completion so their clips survive into the result.
			if err := gctx.Err(); err != nil {
				return nil
			}

			clip, err := u.d.Renderer.Render(gctx, render.Request{
				Source:     in.SourceMedia,
				OutDir:     in.OutDir,
				Aspect:     in.Aspect,
				Seq:        i + 1,
				Segment:    seg,
				Transcript: in.Transcript,
				FullText:   in.FullText,
			})
			if err != nil {
				var terr *render.TranscodeError
				if errors.As(err, &terr) {
					log.Warn().Err(err).Int("seq", i+1).Msg("segment transcode failed, skipping")
					return nil
				}
				log.Warn().Err(err).Int("seq", i+1).Msg("segment render failed, skipping")
				return nil
			}

			clip.ThumbnailPath = u.thumbnail(gctx, in, clip, i, log)
			results[i] = &clip
			return nil
		})
	}
	// Worker funcs never return errors; Wait only observes completion.
	_ = g.Wait()

	var clips []types.RenderedClip
	for _, c := range results {
		if c != nil {
			clips = append(clips, *c)
		}
	}
	return clips
}

func (u Usecase) thumbnail(ctx context.Context, in Input, clip types.RenderedClip, idx int, log zerolog.Logger) string {
	if u.d.Thumbnailer == nil {
		return ""
	}
	segWork := filepath.Join(in.WorkDir, fmt.Sprintf("seg-%03d", idx+1))
	if err := os.MkdirAll(segWork, 0o755); err != nil {
		log.Warn().Err(err).Msg("thumbnail workspace unavailable")
		return ""
	}
	base := clip.FilePath[:len(clip.FilePath)-len(filepath.Ext(clip.FilePath))]
	thumbPath, err := u.d.Thumbnailer.Select(ctx, clip.FilePath, segWork, base+"-thumb.jpg")
	if err != nil {
		log.Warn().Err(err).Str("clip", filepath.Base(clip.FilePath)).Msg("thumbnail selection failed, clip kept without one")
		return ""
	}
	return thumbPath
}

func buildManifest(in Input, clips []types.RenderedClip) types.Manifest {
	m := types.Manifest{Input: in.SourceMedia}
	for i, c := range clips {
		m.Clips = append(m.Clips, types.ManifestClip{
			ID:          fmt.Sprintf("%03d", i+1),
			File:        filepath.ToSlash(filepath.Base(c.FilePath)),
			Title:       c.Title,
			StartSec:    c.Segment.AdjustedStart.Seconds(),
			EndSec:      c.Segment.AdjustedEnd.Seconds(),
			DurationSec: c.Segment.Duration(),
			Category:    c.Segment.Category,
			Excerpt:     c.Excerpt,
			Transcript:  relOrEmpty(c.TranscriptPath),
			Thumbnail:   relOrEmpty(c.ThumbnailPath),
			TailClamped: c.Segment.TailClamped,
		})
	}
	return m
}

func relOrEmpty(path string) string {
	if path == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Base(path))
}
