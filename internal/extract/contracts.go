package extract

import (
	"context"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/ocr"
)

// TextExtractor turns attachment bytes into plain text. Implementations never fail;
// a total failure is an empty Result with a warning.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, ext, fileName string) Result
}

type Result struct {
	Text    string           `json:"text"`
	Method  constants.Method `json:"method"`
	Warning string           `json:"warning,omitempty"`
}

// PDFRecognizer is the OCR stage used once text-layer strategies are exhausted.
type PDFRecognizer interface {
	RecognizePDFBytes(ctx context.Context, data []byte, opts ocr.Options) ocr.Result
}
