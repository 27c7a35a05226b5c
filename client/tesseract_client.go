package client

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
)

// TesseractClient wraps Tesseract OCR for page images, reporting an average
// word confidence alongside the extracted text.
type TesseractClient struct {
	dataPath string
	log      *logrus.Logger
}

func NewTesseractClient(dataPath string, log *logrus.Logger) *TesseractClient {
	return &TesseractClient{dataPath: dataPath, log: log}
}

// TextFromImage runs OCR on a single page image. The returned quality is the
// average word confidence on a 0-100 scale.
func (tc *TesseractClient) TextFromImage(img image.Image) (string, float64, error) {
	tempFile, err := saveImageToTempFile(img)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tempFile)

	return tc.TextFromFile(tempFile)
}

// TextFromFile runs OCR on an image file already on disk.
func (tc *TesseractClient) TextFromFile(filePath string) (string, float64, error) {
	ocr := gosseract.NewClient()
	defer ocr.Close()

	ocr.SetTessdataPrefix(tc.dataPath)
	if err := ocr.SetLanguage("eng"); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := ocr.SetImage(filePath); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := ocr.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	// Word bounding boxes carry per-word confidence; average them.
	boxes, err := ocr.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		tc.log.Debugf("bounding boxes unavailable: %v", err)
		return text, 0, nil
	}

	var totalConf float64
	var count int
	for _, box := range boxes {
		totalConf += box.Confidence
		count++
	}

	avgConf := 0.0
	if count > 0 {
		avgConf = totalConf / float64(count)
	}

	return text, avgConf, nil
}

func saveImageToTempFile(img image.Image) (string, error) {
	tempFile, err := os.CreateTemp("", "ocr-img-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image file: %w", err)
	}
	defer tempFile.Close()

	if err := png.Encode(tempFile, img); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to encode image to PNG: %w", err)
	}

	return tempFile.Name(), nil
}
