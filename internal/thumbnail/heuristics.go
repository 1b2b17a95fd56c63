package thumbnail

import (
	"image"
	"image/color"

	"github.com/clipmoment/clipmoment/internal/ports"
)

// grayGridEncoder is the default identity signature: the crop reduced to
// an 8x8 grid of mean luminance values in [0,1]. Crude next to a learned
// embedding, but stable across small pose changes and cheap enough to run
// on every detected face. Swappable via the IdentityEncoder port.
type grayGridEncoder struct{}

const gridSize = 8

func (grayGridEncoder) Encode(face image.Image) []float64 {
	b := face.Bounds()
	enc := make([]float64, gridSize*gridSize)
	cellW := float64(b.Dx()) / gridSize
	cellH := float64(b.Dy()) / gridSize
	if cellW <= 0 || cellH <= 0 {
		return enc
	}
	for gy := 0; gy < gridSize; gy++ {
		for gx := 0; gx < gridSize; gx++ {
			x0 := b.Min.X + int(float64(gx)*cellW)
			y0 := b.Min.Y + int(float64(gy)*cellH)
			x1 := b.Min.X + int(float64(gx+1)*cellW)
			y1 := b.Min.Y + int(float64(gy+1)*cellH)
			enc[gy*gridSize+gx] = meanLuma(face, x0, y0, x1, y1)
		}
	}
	return enc
}

// luminanceClassifier buckets a face crop into the coarse expression
// taxonomy from simple luminance statistics of the mouth and eye regions.
// A stand-in for a real classifier; only the taxonomy is contractual.
type luminanceClassifier struct{}

func (luminanceClassifier) Classify(face image.Image) ports.Expression {
	b := face.Bounds()
	h := b.Dy()
	if h < 4 {
		return ports.ExpressionNeutral
	}

	// Mouth region: central lower third. Eye region: central upper band.
	mouth := meanLuma(face, b.Min.X+b.Dx()/4, b.Min.Y+2*h/3, b.Max.X-b.Dx()/4, b.Max.Y-h/12)
	eyes := meanLuma(face, b.Min.X+b.Dx()/6, b.Min.Y+h/4, b.Max.X-b.Dx()/6, b.Min.Y+h/2)
	overall := meanLuma(face, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)

	switch {
	case mouth > overall*1.12:
		// A bright mouth region usually means visible teeth.
		return ports.ExpressionHappy
	case eyes > overall*1.10:
		return ports.ExpressionSurprised
	case mouth < overall*0.85:
		return ports.ExpressionTense
	default:
		return ports.ExpressionNeutral
	}
}

func meanLuma(img image.Image, x0, y0, x1, y1 int) float64 {
	var sum, n float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			sum += float64(c.Y) / 255
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
