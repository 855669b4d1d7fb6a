package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
	"github.com/joseph-ayodele/legal-intake/internal/ocr"
)

func missingTools(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	return nil, nil, &runner.ToolError{Tool: name, Kind: runner.KindUnavailable, Err: os.ErrNotExist}
}

func failingDocconv([]byte, string) (string, error) {
	return "", errors.New("no converter")
}

type stubOCR struct {
	res   ocr.Result
	calls int
}

func (s *stubOCR) RecognizePDFBytes(context.Context, []byte, ocr.Options) ocr.Result {
	s.calls++
	return s.res
}

func newTestExtractor(opts ...Option) *Extractor {
	base := []Option{
		WithRunner(runner.Func(missingTools)),
		withDocconv(failingDocconv),
		WithOCR(nil),
	}
	return NewExtractor(nil, append(base, opts...)...)
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractEmpty(t *testing.T) {
	res := newTestExtractor().Extract(context.Background(), nil, "pdf", "a.pdf")
	assert.Equal(t, constants.MethodEmpty, res.Method)
	assert.Empty(t, res.Text)
}

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short", "hi"},
		{"trailing spaces", "строка один   \n\n\n\nстрока два\t\n"},
		{"over cap", strings.Repeat("а", textclean.MaxTextRunes+500)},
		{"nul bytes", "a\x00b\x00c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestExtractor().Extract(context.Background(), []byte(tt.in), ".TXT", "notes.txt")
			assert.Equal(t, constants.MethodPlainText, res.Method)
			assert.Equal(t, textclean.Sanitize(tt.in), res.Text)
			assert.LessOrEqual(t, len([]rune(res.Text)), textclean.MaxTextRunes)
		})
	}
}

func TestExtractDocxXML(t *testing.T) {
	doc := buildDocx(t, `<?xml version="1.0"?><w:document><w:body>`+
		`<w:p><w:r><w:t>Договор аренды нежилого помещения</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Арендатор</w:t></w:r><w:tab/><w:r><w:t>ООО &quot;Ромашка&quot; &amp; партнеры</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	res := newTestExtractor().Extract(context.Background(), doc, "docx", "lease.docx")
	assert.Equal(t, constants.MethodDocxXML, res.Method)
	assert.Contains(t, res.Text, "Договор аренды нежилого помещения")
	assert.Contains(t, res.Text, "\t")
	assert.Contains(t, res.Text, `ООО "Ромашка" & партнеры`)
	assert.NotContains(t, res.Text, "<w:")
}

func TestExtractOfficePrefersTextutil(t *testing.T) {
	run := func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "textutil", name)
		require.Equal(t, []string{"-convert", "txt", "-stdout"}, args[:3])
		return []byte("Претензия о взыскании задолженности по договору поставки\n"), nil, nil
	}
	res := newTestExtractor(WithRunner(runner.Func(run))).Extract(context.Background(), []byte("{\\rtf1}"), "rtf", "claim.rtf")
	assert.Equal(t, constants.MethodTextutil, res.Method)
	assert.Equal(t, "Претензия о взыскании задолженности по договору поставки", res.Text)
}

func TestExtractOfficeDocconv(t *testing.T) {
	conv := func(data []byte, ext string) (string, error) {
		assert.Equal(t, "doc", ext)
		return "Акт сверки взаимных расчетов за первый квартал", nil
	}
	res := newTestExtractor(withDocconv(conv)).Extract(context.Background(), []byte{0xD0, 0xCF, 0x11, 0xE0}, "doc", "act.doc")
	assert.Equal(t, constants.MethodDocconv, res.Method)
}

func TestExtractTooLittleTextIsUnsupported(t *testing.T) {
	doc := buildDocx(t, `<w:document><w:p><w:t>Да</w:t></w:p></w:document>`)
	res := newTestExtractor().Extract(context.Background(), doc, "docx", "tiny.docx")
	assert.Empty(t, res.Text)
	assert.Equal(t, constants.Method("unsupported-docx"), res.Method)
	assert.Contains(t, res.Warning, "tiny.docx")
}

func TestExtractBinaryIsUnsupported(t *testing.T) {
	data := bytes.Repeat([]byte{0x00, 0x01, 0xFF, 0x7F}, 512)
	res := newTestExtractor().Extract(context.Background(), data, "", "")
	assert.Empty(t, res.Text)
	assert.Equal(t, constants.Method("unsupported-binary"), res.Method)
	assert.NotEmpty(t, res.Warning)
}

func TestExtractPrintableFallback(t *testing.T) {
	var data []byte
	data = append(data, 0x00, 0x01, 0x02)
	data = append(data, []byte("Настоящим уведомляем о расторжении договора поставки")...)
	data = append(data, 0xFF, 0xFE, 0x00)
	data = append(data, []byte("Payment is overdue since the first of March 2026")...)

	res := newTestExtractor().Extract(context.Background(), data, "dat", "blob.dat")
	assert.Equal(t, constants.MethodPrintableFallback, res.Method)
	assert.Equal(t, "Настоящим уведомляем о расторжении договора поставки Payment is overdue since the first of March 2026", res.Text)
}

func TestExtractPDFFallsThroughToOCR(t *testing.T) {
	stub := &stubOCR{res: ocr.Result{Text: "Страница 1\nИсковое заявление о взыскании", Method: constants.MethodOCRTesseract}}
	res := newTestExtractor(WithOCR(stub)).Extract(context.Background(), []byte("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n"), "pdf", "scan.pdf")
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, constants.MethodOCRTesseract, res.Method)
	assert.Contains(t, res.Text, "Исковое заявление")
}

func TestExtractPDFOCRWarningSurvives(t *testing.T) {
	stub := &stubOCR{res: ocr.Result{Method: constants.MethodOCREmpty, Warning: "OCR не извлек текст"}}
	res := newTestExtractor(WithOCR(stub)).Extract(context.Background(), []byte("%PDF-1.7\n"), "pdf", "scan.pdf")
	assert.Empty(t, res.Text)
	assert.Equal(t, constants.Method("unsupported-pdf"), res.Method)
	assert.Contains(t, res.Warning, "OCR не извлек текст")
}

func TestExtractPDFTokenizerBeatsOCR(t *testing.T) {
	stub := &stubOCR{}
	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Length 80 >>\nstream\nBT /F1 12 Tf (Supply agreement signed by both parties today) Tj ET\nendstream\nendobj\n")
	res := newTestExtractor(WithOCR(stub)).Extract(context.Background(), pdf, "pdf", "a.pdf")
	assert.Equal(t, constants.MethodPDFFallback, res.Method)
	assert.Equal(t, "Supply agreement signed by both parties today", res.Text)
	assert.Zero(t, stub.calls)
}
