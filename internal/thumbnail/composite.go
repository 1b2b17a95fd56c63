package thumbnail

import (
	"image"
	"image/jpeg"
	"os"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"github.com/clipmoment/clipmoment/internal/ports"
)

// compositeHeight is the common height both face crops are resized to
// before concatenation.
const compositeHeight = 480

// cropWithMargin cuts the face box out of the frame, widened by margin on
// every side and clamped to the frame bounds. Returns nil when the box is
// degenerate.
func cropWithMargin(frame image.Image, box ports.FaceBox, margin float64) image.Image {
	if box.Size <= 0 {
		return nil
	}
	pad := int(float64(box.Size) * margin)
	r := image.Rect(box.X-pad, box.Y-pad, box.X+box.Size+pad, box.Y+box.Size+pad)
	r = r.Intersect(frame.Bounds())
	if r.Dx() < 2 || r.Dy() < 2 {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(out, out.Bounds(), frame, r.Min, xdraw.Src)
	return out
}

// writeComposite resizes both crops to a common height preserving aspect
// ratio, concatenates them side by side and encodes the result as JPEG.
func writeComposite(left, right image.Image, outPath string) error {
	l := resize.Resize(0, compositeHeight, left, resize.Lanczos3)
	r := resize.Resize(0, compositeHeight, right, resize.Lanczos3)

	lw := l.Bounds().Dx()
	rw := r.Bounds().Dx()
	canvas := image.NewRGBA(image.Rect(0, 0, lw+rw, compositeHeight))
	xdraw.Draw(canvas, image.Rect(0, 0, lw, compositeHeight), l, l.Bounds().Min, xdraw.Src)
	xdraw.Draw(canvas, image.Rect(lw, 0, lw+rw, compositeHeight), r, r.Bounds().Min, xdraw.Src)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, canvas, &jpeg.Options{Quality: 90})
}
