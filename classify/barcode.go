package classify

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// DecodeFormBarcode attempts to read a barcode or QR code from a page image.
// Payroll providers and e-filed agency forms often stamp the form name into a
// machine-readable code; the decoded payload is appended to the text handed to
// the anchor scanner. Returns false when no code is present or decodable.
func DecodeFormBarcode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}

	if result, err := qrcode.NewQRCodeReader().Decode(bmp, nil); err == nil {
		return result.GetText(), true
	}
	if result, err := oned.NewCode128Reader().Decode(bmp, nil); err == nil {
		return result.GetText(), true
	}
	return "", false
}
