// Package pigoface adapts the pigo cascade classifier to the FaceDetector
// port. It is the default detector; anything satisfying the port can
// replace it.
package pigoface

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/clipmoment/clipmoment/internal/ports"
)

// minQuality discards weak cascade responses; pigo's quality scale puts
// reliable frontal faces well above this.
const minQuality = 5.0

type Detector struct {
	classifier *pigo.Pigo
}

var _ ports.FaceDetector = (*Detector)(nil)

// New loads a pigo facefinder cascade from disk.
func New(cascadePath string) (*Detector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	return &Detector{classifier: classifier}, nil
}

func (d *Detector) Detect(frame image.Image) ([]ports.FaceBox, error) {
	src := pigo.ImgToNRGBA(frame)
	pixels := pigo.RgbToGrayscale(src)
	cols := src.Bounds().Dx()
	rows := src.Bounds().Dy()

	maxSize := rows
	if cols < rows {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     40,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	var boxes []ports.FaceBox
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		boxes = append(boxes, ports.FaceBox{
			X:    det.Col - det.Scale/2,
			Y:    det.Row - det.Scale/2,
			Size: det.Scale,
		})
	}
	return boxes, nil
}
