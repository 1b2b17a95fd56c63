// Package thumbnail picks a representative two-face thumbnail for a
// rendered clip. Frames are sampled at a stride proportional to the clip
// length; faces are deduplicated by identity signature and coarse
// expression class so the composite shows two visually distinct people.
// Finding fewer than two faces is a normal outcome, not an error.
package thumbnail

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/clipmoment/clipmoment/internal/ports"
)

const (
	// maxSamples caps how many frames one clip contributes; longer clips
	// sample more coarsely instead of more often.
	maxSamples = 12

	// minStrideFrames keeps very short clips from sampling near-identical
	// neighboring frames.
	minStrideFrames = 10

	// identityThreshold is the minimum signature distance for two crops to
	// count as different people.
	identityThreshold = 0.22

	// cropMargin widens each face box proportionally before cropping.
	cropMargin = 0.25

	facesWanted = 2
)

type faceSample struct {
	crop       image.Image
	encoding   []float64
	expression ports.Expression
}

type Selector struct {
	video      ports.VideoTool
	detector   ports.FaceDetector
	identity   ports.IdentityEncoder
	expression ports.ExpressionClassifier
	log        zerolog.Logger
}

func New(video ports.VideoTool, detector ports.FaceDetector, log zerolog.Logger) *Selector {
	return &Selector{
		video:      video,
		detector:   detector,
		identity:   grayGridEncoder{},
		expression: luminanceClassifier{},
		log:        log.With().Str("component", "thumbnail").Logger(),
	}
}

// WithHeuristics swaps the identity encoder and expression classifier,
// keeping the selection logic untouched.
func (s *Selector) WithHeuristics(identity ports.IdentityEncoder, expression ports.ExpressionClassifier) *Selector {
	s.identity = identity
	s.expression = expression
	return s
}

// Select samples clipPath and writes a composite thumbnail to outPath.
// It returns ("", nil) when no thumbnail qualifies.
func (s *Selector) Select(ctx context.Context, clipPath, workDir, outPath string) (string, error) {
	info, err := s.video.ProbeInfo(ctx, clipPath)
	if err != nil {
		return "", fmt.Errorf("probe clip: %w", err)
	}
	if info.FrameCount <= 0 || info.FPS <= 0 {
		s.log.Debug().Str("clip", filepath.Base(clipPath)).Msg("no frame metadata, skipping thumbnail")
		return "", nil
	}

	stride := info.FrameCount / maxSamples
	if stride < minStrideFrames {
		stride = minStrideFrames
	}

	var accepted []faceSample
	seenExpressions := map[ports.Expression]bool{}

	for frameIdx := 0; frameIdx < info.FrameCount && len(accepted) < facesWanted; frameIdx += stride {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		at := float64(frameIdx) / info.FPS
		frame, err := s.grabFrame(ctx, clipPath, workDir, at)
		if err != nil {
			s.log.Debug().Err(err).Float64("at", at).Msg("frame grab failed, continuing")
			continue
		}

		boxes, err := s.detector.Detect(frame)
		if err != nil {
			s.log.Debug().Err(err).Float64("at", at).Msg("face detection failed, continuing")
			continue
		}

		for _, box := range boxes {
			if len(accepted) >= facesWanted {
				break
			}
			crop := cropWithMargin(frame, box, cropMargin)
			if crop == nil {
				continue
			}
			enc := s.identity.Encode(crop)
			if samePersonAsAny(accepted, enc) {
				continue
			}
			expr := s.expression.Classify(crop)
			if seenExpressions[expr] {
				continue
			}
			accepted = append(accepted, faceSample{crop: crop, encoding: enc, expression: expr})
			seenExpressions[expr] = true
		}
	}

	if len(accepted) < facesWanted {
		s.log.Debug().Str("clip", filepath.Base(clipPath)).Int("faces", len(accepted)).Msg("not enough distinct faces, no thumbnail")
		return "", nil
	}

	if err := writeComposite(accepted[0].crop, accepted[1].crop, outPath); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	s.log.Info().Str("thumbnail", filepath.Base(outPath)).Msg("thumbnail composed")
	return outPath, nil
}

func (s *Selector) grabFrame(ctx context.Context, clipPath, workDir string, atSec float64) (image.Image, error) {
	framePath := filepath.Join(workDir, "frame.jpg")
	if err := s.video.ExtractFrame(ctx, clipPath, atSec, framePath); err != nil {
		return nil, err
	}
	f, err := os.Open(framePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func samePersonAsAny(accepted []faceSample, enc []float64) bool {
	for _, a := range accepted {
		if signatureDistance(a.encoding, enc) < identityThreshold {
			return true
		}
	}
	return false
}

// signatureDistance is the euclidean distance between two encodings,
// normalized by vector length so it is independent of encoding size.
func signatureDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}
