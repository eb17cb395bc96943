// Package ocr reads text off scanned mutation plans. The text is noisy,
// mostly handwritten labels next to printed tables, but it reliably
// yields parcel numbers and the occasional map scale, which narrow down
// where on the ground a plan belongs.
package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Engine wraps a Tesseract client configured for German survey documents.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates an OCR engine. Callers must Close it.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("deu"); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set language: %w", err)
	}
	return &Engine{client: client}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize runs OCR over a whole page and returns the raw text.
func (e *Engine) Recognize(page gocv.Mat) (string, error) {
	if page.Empty() {
		return "", fmt.Errorf("ocr: empty page")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, page)
	if err != nil {
		return "", fmt.Errorf("ocr: encode page: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("ocr: set page segmentation mode: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
