package extract

import (
	"image"

	"github.com/disintegration/imaging"
)

// minOCRWidth is the width below which a scan is upsampled before OCR;
// Tesseract accuracy degrades sharply on small renders.
const minOCRWidth = 1200

// PrepareForOCR normalizes a page image before handing it to Tesseract:
// grayscale, contrast stretch, sharpen, and upscaling of small scans.
func PrepareForOCR(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 15)
	out = imaging.Sharpen(out, 0.8)
	if out.Bounds().Dx() < minOCRWidth {
		out = imaging.Resize(out, minOCRWidth, 0, imaging.Lanczos)
	}
	return out
}
