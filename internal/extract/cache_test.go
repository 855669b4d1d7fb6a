package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/legal-intake/constants"
)

type countingExtractor struct{ calls int }

func (c *countingExtractor) Extract(_ context.Context, data []byte, _, _ string) Result {
	c.calls++
	return Result{Text: string(data), Method: constants.MethodPlainText}
}

func TestCachedExtractor(t *testing.T) {
	inner := &countingExtractor{}
	ce := NewCachedExtractor(inner, NewCache(2), nil)
	ctx := context.Background()

	ce.Extract(ctx, []byte("one"), "txt", "a.txt")
	ce.Extract(ctx, []byte("one"), "TXT", "b.txt")
	assert.Equal(t, 1, inner.calls)

	// same bytes, different extension is a different key
	ce.Extract(ctx, []byte("one"), "md", "a.md")
	assert.Equal(t, 2, inner.calls)

	// third key evicts the oldest
	ce.Extract(ctx, []byte("two"), "txt", "c.txt")
	assert.Equal(t, 2, ce.cache.Len())
	ce.Extract(ctx, []byte("one"), "txt", "a.txt")
	assert.Equal(t, 4, inner.calls)
}

func TestCacheKey(t *testing.T) {
	k := CacheKey([]byte("abc"), ".PDF")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad:pdf", k)
}

// pdfExtractor fails whenever its context is already done.
type pdfExtractor struct{ calls int }

func (p *pdfExtractor) Extract(ctx context.Context, _ []byte, ext, _ string) Result {
	p.calls++
	if ctx.Err() != nil {
		return Result{Method: constants.UnsupportedMethod(ext)}
	}
	return Result{Text: "recognized page", Method: constants.MethodOCRTesseract}
}

func TestCachedExtractor_SkipsCancelledAndUnsupported(t *testing.T) {
	inner := &pdfExtractor{}
	ce := NewCachedExtractor(inner, NewCache(4), nil)
	data := []byte("%PDF-1.4 scanned")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	r := ce.Extract(cancelled, data, "pdf", "scan.pdf")
	assert.Equal(t, constants.Method("unsupported-pdf"), r.Method)
	assert.Equal(t, 0, ce.cache.Len())

	r = ce.Extract(context.Background(), data, "pdf", "scan.pdf")
	assert.Equal(t, constants.MethodOCRTesseract, r.Method)
	assert.Equal(t, "recognized page", r.Text)
	assert.Equal(t, 2, inner.calls)

	ce.Extract(context.Background(), data, "pdf", "scan.pdf")
	assert.Equal(t, 2, inner.calls)
}

type unsupportedExtractor struct{ calls int }

func (u *unsupportedExtractor) Extract(_ context.Context, _ []byte, ext, _ string) Result {
	u.calls++
	return Result{Method: constants.UnsupportedMethod(ext), Warning: "no strategy produced text"}
}

func TestCachedExtractor_DoesNotStoreUnsupported(t *testing.T) {
	inner := &unsupportedExtractor{}
	ce := NewCachedExtractor(inner, NewCache(4), nil)

	ce.Extract(context.Background(), []byte{0x00, 0x01}, "bin", "blob.bin")
	ce.Extract(context.Background(), []byte{0x00, 0x01}, "bin", "blob.bin")
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, ce.cache.Len())
}
