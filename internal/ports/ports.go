package ports

import (
	"context"
	"image"

	"github.com/clipmoment/clipmoment/internal/domain/timecode"
)

// Resolution is the output frame size of a transcode.
type Resolution struct {
	Width  int
	Height int
}

// VideoInfo is the probed metadata the thumbnail sampler needs.
type VideoInfo struct {
	DurationSec float64
	Width       int
	Height      int
	FPS         float64
	FrameCount  int
}

// VideoTool is the external transcoding primitive. Implementations run a
// real encoder process; calls block until the process exits and honor
// context cancellation.
type VideoTool interface {
	// TranscodeSegment cuts [start, end] out of inPath, scales it to res
	// with a square pixel aspect and writes outPath.
	TranscodeSegment(ctx context.Context, inPath string, start, end timecode.TimeCode, res Resolution, outPath string) error

	// ProbeDuration returns the container duration in seconds.
	ProbeDuration(ctx context.Context, inPath string) (float64, error)

	// ProbeInfo returns stream-level metadata for inPath.
	ProbeInfo(ctx context.Context, inPath string) (VideoInfo, error)

	// ExtractFrame decodes the frame nearest atSec into an image file.
	ExtractFrame(ctx context.Context, inPath string, atSec float64, outPath string) error
}

// FaceBox is one detected face region in frame coordinates.
type FaceBox struct {
	X    int
	Y    int
	Size int
}

// FaceDetector finds faces in a decoded frame. Implementations are
// pluggable so the heuristic detector can be swapped for a real model
// without touching selection logic.
type FaceDetector interface {
	Detect(frame image.Image) ([]FaceBox, error)
}

// Expression is the coarse expression taxonomy used to diversify
// thumbnail faces.
type Expression string

const (
	ExpressionNeutral   Expression = "neutral"
	ExpressionHappy     Expression = "happy"
	ExpressionSurprised Expression = "surprised"
	ExpressionTense     Expression = "tense"
)

// IdentityEncoder produces a comparable signature for a face crop, used
// to reject duplicate appearances of the same person.
type IdentityEncoder interface {
	Encode(face image.Image) []float64
}

// ExpressionClassifier assigns a face crop to one Expression class.
type ExpressionClassifier interface {
	Classify(face image.Image) Expression
}
