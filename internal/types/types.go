package types

import "github.com/clipmoment/clipmoment/internal/domain/timecode"

// Transcript is the timestamp-aligned transcription of the source video,
// in the whisper JSON shape. Word timestamps are optional.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// CandidateSegment is one time range extracted from the analysis text.
// Produced only by the analysis parser; start < end and start < total
// duration hold for every stored candidate.
type CandidateSegment struct {
	Start       timecode.TimeCode
	End         timecode.TimeCode
	Category    string
	Description string
	Highlight   string

	// SourceOrder is the index of appearance among valid matches in the
	// raw text, used as the last-resort tie-break during selection.
	SourceOrder int
}

// SelectedSegment is a candidate after duration-policy adjustment.
type SelectedSegment struct {
	CandidateSegment

	AdjustedStart timecode.TimeCode
	AdjustedEnd   timecode.TimeCode

	// Rank is the priority class derived from Category; lower is better.
	Rank int

	// TailClamped marks the documented exception where the remaining video
	// tail was shorter than the bucket minimum, so the adjusted length may
	// fall below it.
	TailClamped bool
}

// Duration returns the adjusted length in seconds.
func (s SelectedSegment) Duration() int {
	return s.AdjustedEnd.Seconds() - s.AdjustedStart.Seconds()
}

// RenderedClip is the output of one successful transcode. Created once,
// never mutated afterwards.
type RenderedClip struct {
	Segment        SelectedSegment
	FilePath       string
	Title          string
	Excerpt        string
	TranscriptPath string
	ThumbnailPath  string
}

// Manifest is the JSON run summary written next to the clips.
type Manifest struct {
	Input string         `json:"input"`
	Clips []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID          string `json:"id"`
	File        string `json:"file"`
	Title       string `json:"title"`
	StartSec    int    `json:"start_sec"`
	EndSec      int    `json:"end_sec"`
	DurationSec int    `json:"duration_sec"`
	Category    string `json:"category,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	TailClamped bool   `json:"tail_clamped,omitempty"`
}
