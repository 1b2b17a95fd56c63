package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clipmoment/clipmoment/internal/render"
	"github.com/clipmoment/clipmoment/internal/types"
)

type fakeProber struct {
	sec float64
	err error
}

func (f fakeProber) ProbeDuration(context.Context, string) (float64, error) {
	return f.sec, f.err
}

type fakeRenderer struct {
	mu       sync.Mutex
	requests []render.Request
	failSeqs map[int]bool

	// onRender runs after a successful render of the given sequence.
	onRender func(seq int)
}

func (f *fakeRenderer) Render(_ context.Context, req render.Request) (types.RenderedClip, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.failSeqs[req.Seq] {
		return types.RenderedClip{}, &render.TranscodeError{
			Start: req.Segment.AdjustedStart,
			End:   req.Segment.AdjustedEnd,
			Err:   errors.New("exit status 1"),
		}
	}
	if f.onRender != nil {
		defer f.onRender(req.Seq)
	}
	return types.RenderedClip{
		Segment:        req.Segment,
		FilePath:       filepath.Join(req.OutDir, fmt.Sprintf("clip-%02d.mp4", req.Seq)),
		Title:          render.DeriveTitle(req.Segment.CandidateSegment, req.Seq),
		TranscriptPath: filepath.Join(req.OutDir, fmt.Sprintf("clip-%02d.txt", req.Seq)),
	}, nil
}

type fakeThumbnailer struct {
	path string
	err  error
}

func (f fakeThumbnailer) Select(_ context.Context, _, _, outPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.path == "" {
		return "", nil
	}
	return outPath, nil
}

func newUsecase(r *fakeRenderer, p fakeProber, th ThumbnailSelector) Usecase {
	return New(Deps{
		Prober:      p,
		Renderer:    r,
		Thumbnailer: th,
		Log:         zerolog.Nop(),
	})
}

const analysisA = "Category: Valuable Information and Useful Insights\nTimestamp: 00:01:00 - 00:01:40\nDescription: tip\n"

func baseInput(tmp string) Input {
	return Input{
		SourceMedia:      "in.mp4",
		AnalysisText:     analysisA,
		TotalDurationSec: 600,
		Aspect:           "16:9",
		Bucket:           "30s-59s",
		OutDir:           tmp,
		WorkDir:          filepath.Join(tmp, "work"),
		Workers:          2,
	}
}

func TestRun_SingleSegmentWithinBucket(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	res, err := newUsecase(r, fakeProber{}, nil).Run(context.Background(), baseInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(res.Clips))
	}
	seg := res.Clips[0].Segment
	if seg.AdjustedStart.Seconds() != 60 || seg.AdjustedEnd.Seconds() != 100 {
		t.Fatalf("expected segment (60,100), got (%d,%d)", seg.AdjustedStart.Seconds(), seg.AdjustedEnd.Seconds())
	}

	mc := res.Manifest.Clips[0]
	if mc.ID != "001" || mc.StartSec != 60 || mc.EndSec != 100 || mc.DurationSec != 40 {
		t.Fatalf("unexpected manifest entry: %+v", mc)
	}
	if mc.TailClamped {
		t.Fatalf("unexpected tail clamp flag")
	}
}

func TestRun_BucketTruncates(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.Bucket = "<30s"
	r := &fakeRenderer{}
	res, err := newUsecase(r, fakeProber{}, nil).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	seg := res.Clips[0].Segment
	if seg.AdjustedStart.Seconds() != 60 || seg.AdjustedEnd.Seconds() != 90 {
		t.Fatalf("expected segment (60,90), got (%d,%d)", seg.AdjustedStart.Seconds(), seg.AdjustedEnd.Seconds())
	}
}

func TestRun_EmptyAnalysisIsValidEmptyResult(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.AnalysisText = ""
	r := &fakeRenderer{}
	res, err := newUsecase(r, fakeProber{}, nil).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("empty analysis must not be an error, got %v", err)
	}
	if len(res.Clips) != 0 || len(res.Manifest.Clips) != 0 {
		t.Fatalf("expected empty result, got %d clips", len(res.Clips))
	}
	if len(r.requests) != 0 {
		t.Fatalf("nothing should have been rendered")
	}
}

func TestRun_MissingSourceIsFatal(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.SourceMedia = ""
	_, err := newUsecase(&fakeRenderer{}, fakeProber{}, nil).Run(context.Background(), in)
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected ErrMissingSource, got %v", err)
	}
}

func TestRun_ProbesDurationWhenAbsent(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.TotalDurationSec = 0
	res, err := newUsecase(&fakeRenderer{}, fakeProber{sec: 600}, nil).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(res.Clips))
	}
}

func TestRun_ProbeFailureIsFatal(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.TotalDurationSec = 0
	_, err := newUsecase(&fakeRenderer{}, fakeProber{err: errors.New("no container")}, nil).Run(context.Background(), in)
	if !errors.Is(err, ErrMissingDuration) {
		t.Fatalf("expected ErrMissingDuration, got %v", err)
	}
}

func TestRun_TranscodeFailureSkipsSegmentOnly(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.AnalysisText = "Timestamp: 00:01:00 - 00:01:40\nTimestamp: 00:05:00 - 00:05:40\n"
	r := &fakeRenderer{failSeqs: map[int]bool{1: true}}
	res, err := newUsecase(r, fakeProber{}, nil).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("partial failure must not abort the run, got %v", err)
	}
	if len(res.Clips) != 1 {
		t.Fatalf("expected 1 surviving clip, got %d", len(res.Clips))
	}
	if res.Clips[0].Segment.AdjustedStart.Seconds() != 300 {
		t.Fatalf("wrong segment survived: start=%d", res.Clips[0].Segment.AdjustedStart.Seconds())
	}
	// Manifest IDs stay sequential over the surviving clips.
	if res.Manifest.Clips[0].ID != "001" {
		t.Fatalf("unexpected manifest id %q", res.Manifest.Clips[0].ID)
	}
}

func TestRun_OutputSortedByTimeline(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	// Higher-priority segment appears later in the text and later on the
	// timeline; output order must still be ascending by start.
	in.AnalysisText = "Category: Funny Moments\nTimestamp: 00:01:00 - 00:01:40\n" +
		"Category: Valuable Information\nTimestamp: 00:05:00 - 00:05:40\n"
	res, err := newUsecase(&fakeRenderer{}, fakeProber{}, nil).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(res.Clips); i++ {
		if res.Clips[i-1].Segment.AdjustedStart > res.Clips[i].Segment.AdjustedStart {
			t.Fatalf("clips out of timeline order")
		}
	}
	for i, mc := range res.Manifest.Clips {
		if mc.ID != fmt.Sprintf("%03d", i+1) {
			t.Fatalf("manifest ids not sequential: %q at %d", mc.ID, i)
		}
	}
}

func TestRun_CancellationReturnsPartialResult(t *testing.T) {
	t.Parallel()

	in := baseInput(t.TempDir())
	in.AnalysisText = "Timestamp: 00:01:00 - 00:01:40\nTimestamp: 00:05:00 - 00:05:40\n"
	// One worker keeps task order deterministic: the second segment is
	// scheduled only after the first finished and cancelled the run.
	in.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeRenderer{onRender: func(seq int) {
		if seq == 1 {
			cancel()
		}
	}}

	res, err := newUsecase(r, fakeProber{}, nil).Run(ctx, in)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Clips) != 1 {
		t.Fatalf("expected the already-rendered clip to survive, got %d", len(res.Clips))
	}
	if res.Clips[0].Segment.AdjustedStart.Seconds() != 60 {
		t.Fatalf("wrong clip survived: start=%d", res.Clips[0].Segment.AdjustedStart.Seconds())
	}
	if len(res.Manifest.Clips) != 1 || res.Manifest.Clips[0].ID != "001" {
		t.Fatalf("partial manifest not built: %+v", res.Manifest)
	}
}

func TestRun_ComponentFieldNotDuplicated(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	u := New(Deps{
		Prober:   fakeProber{},
		Renderer: &fakeRenderer{},
		Log:      zerolog.New(&buf),
	})
	if _, err := u.Run(context.Background(), baseInput(t.TempDir())); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Count(line, `"component"`) > 1 {
			t.Fatalf("duplicate component key in event: %s", line)
		}
	}
}

func TestRun_ThumbnailAttachedWhenFound(t *testing.T) {
	t.Parallel()

	res, err := newUsecase(&fakeRenderer{}, fakeProber{}, fakeThumbnailer{path: "yes"}).
		Run(context.Background(), baseInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Clips[0].ThumbnailPath == "" {
		t.Fatalf("expected thumbnail path")
	}
	if res.Manifest.Clips[0].Thumbnail == "" {
		t.Fatalf("expected thumbnail in manifest")
	}
}

func TestRun_ThumbnailFailureKeepsClip(t *testing.T) {
	t.Parallel()

	res, err := newUsecase(&fakeRenderer{}, fakeProber{}, fakeThumbnailer{err: errors.New("decoder broke")}).
		Run(context.Background(), baseInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Clips) != 1 {
		t.Fatalf("clip should survive a thumbnail failure, got %d clips", len(res.Clips))
	}
	if res.Clips[0].ThumbnailPath != "" {
		t.Fatalf("expected empty thumbnail path")
	}
}

func TestRun_NoThumbnailIsNormal(t *testing.T) {
	t.Parallel()

	res, err := newUsecase(&fakeRenderer{}, fakeProber{}, fakeThumbnailer{}).
		Run(context.Background(), baseInput(t.TempDir()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Clips[0].ThumbnailPath != "" {
		t.Fatalf("expected no thumbnail")
	}
	if res.Manifest.Clips[0].Thumbnail != "" {
		t.Fatalf("manifest should omit missing thumbnails")
	}
}
