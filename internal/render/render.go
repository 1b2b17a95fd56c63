// Package render turns selected segments into clip files on disk by
// driving the external transcoder, and derives per-clip titles, file
// names and transcript sidecars.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clipmoment/clipmoment/internal/domain/timecode"
	"github.com/clipmoment/clipmoment/internal/domain/transcript"
	"github.com/clipmoment/clipmoment/internal/ports"
	"github.com/clipmoment/clipmoment/internal/types"
)

// aspectResolutions is the fixed aspect-token table. Unrecognized tokens
// fall back to 16:9.
var aspectResolutions = map[string]ports.Resolution{
	"9:16": {Width: 720, Height: 1280},
	"1:1":  {Width: 1080, Height: 1080},
	"16:9": {Width: 1920, Height: 1080},
}

const defaultAspect = "16:9"

// ResolveAspect maps an aspect token to output dimensions.
func ResolveAspect(token string) ports.Resolution {
	if r, ok := aspectResolutions[token]; ok {
		return r
	}
	return aspectResolutions[defaultAspect]
}

// KnownAspect reports whether token is one of the supported aspects.
func KnownAspect(token string) bool {
	_, ok := aspectResolutions[token]
	return ok
}

// TranscodeError reports a failed transcoder invocation for one segment.
// It is never fatal to the pipeline; the segment is skipped.
type TranscodeError struct {
	Start timecode.TimeCode
	End   timecode.TimeCode
	Err   error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s-%s: %v", e.Start, e.End, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

type Renderer struct {
	video   ports.VideoTool
	log     zerolog.Logger
	timeout time.Duration
}

// DefaultTimeout bounds one transcoder invocation.
const DefaultTimeout = 10 * time.Minute

func New(video ports.VideoTool, log zerolog.Logger, timeout time.Duration) *Renderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Renderer{
		video:   video,
		log:     log.With().Str("component", "render").Logger(),
		timeout: timeout,
	}
}

// Request carries everything needed to render one clip.
type Request struct {
	Source string
	OutDir string
	Aspect string

	// Seq is the 1-based position of the segment in the selected list,
	// used in the placeholder title and the file name.
	Seq int

	Segment types.SelectedSegment

	// Transcript provides timestamp-aligned excerpt data when available.
	Transcript types.Transcript

	// FullText is the whole plain transcription, the last-resort sidecar
	// content.
	FullText string
}

// Render transcodes one segment and writes its transcript sidecar. A
// transcoder failure or timeout returns a *TranscodeError.
func (r *Renderer) Render(ctx context.Context, req Request) (types.RenderedClip, error) {
	title := DeriveTitle(req.Segment.CandidateSegment, req.Seq)
	base := fmt.Sprintf("%s-%s-%02d", SanitizeTitle(title), uuid.NewString()[:8], req.Seq)
	clipPath := filepath.Join(req.OutDir, base+".mp4")

	res := ResolveAspect(req.Aspect)
	seg := req.Segment

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Info().
		Stringer("start", seg.AdjustedStart).
		Stringer("end", seg.AdjustedEnd).
		Str("file", filepath.Base(clipPath)).
		Msg("transcoding segment")

	if err := r.video.TranscodeSegment(tctx, req.Source, seg.AdjustedStart, seg.AdjustedEnd, res, clipPath); err != nil {
		return types.RenderedClip{}, &TranscodeError{Start: seg.AdjustedStart, End: seg.AdjustedEnd, Err: err}
	}

	excerpt := r.excerpt(req)
	txtPath := filepath.Join(req.OutDir, base+".txt")
	if err := os.WriteFile(txtPath, []byte(excerpt), 0o644); err != nil {
		// The clip itself rendered; a sidecar write failure downgrades to a
		// clip without transcript rather than a lost clip.
		r.log.Warn().Err(err).Str("file", filepath.Base(txtPath)).Msg("transcript sidecar not written")
		txtPath = ""
	}

	return types.RenderedClip{
		Segment:        seg,
		FilePath:       clipPath,
		Title:          title,
		Excerpt:        excerpt,
		TranscriptPath: txtPath,
	}, nil
}

// excerpt picks the sidecar content: the aligned transcript slice when
// timing data exists, else the highlight quote, else the full text.
func (r *Renderer) excerpt(req Request) string {
	if transcript.HasTiming(req.Transcript) {
		if t := transcript.Excerpt(req.Transcript, req.Segment.AdjustedStart.Seconds(), req.Segment.AdjustedEnd.Seconds()); t != "" {
			return t
		}
	}
	if req.Segment.Highlight != "" {
		return req.Segment.Highlight
	}
	return req.FullText
}

// DeriveTitle picks the clip title: highlight quote, else description,
// else category, else a generated placeholder.
func DeriveTitle(c types.CandidateSegment, seq int) string {
	for _, s := range []string{c.Highlight, c.Description, c.Category} {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return fmt.Sprintf("Moment %d", seq)
}

// SanitizeTitle reduces a derived title to a path-safe slug: path-unsafe
// runes drop out and whitespace runs collapse to a single dash.
func SanitizeTitle(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	const maxLen = 60
	if len(out) > maxLen {
		out = strings.Trim(out[:maxLen], "-")
	}
	if out == "" {
		out = "clip"
	}
	return out
}
