package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

const pageText = "Договор поставки номер семь между сторонами заключен сегодня"

type fakeTools struct {
	mu        sync.Mutex
	calls     []string
	prefixDir string
	pages     []int
	renderers map[string]bool // tools that produce output
	tesseract func(img, lang string) ([]byte, error)
}

func (f *fakeTools) run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	switch name {
	case "pdftoppm", "pdftocairo", "sips":
		if !f.renderers[name] {
			return nil, []byte("boom"), &runner.ToolError{Tool: name, Kind: runner.KindUnavailable, Err: os.ErrNotExist}
		}
		if name == "sips" {
			out := args[len(args)-1]
			f.prefixDir = filepath.Dir(out)
			return nil, nil, os.WriteFile(out, []byte("png"), 0o600)
		}
		prefix := args[len(args)-1]
		f.prefixDir = filepath.Dir(prefix)
		for _, n := range f.pages {
			page := prefix + "-" + strconv.Itoa(n) + ".png"
			if err := os.WriteFile(page, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		return f.tesseract(args[0], args[3])
	}
	return nil, nil, errors.New("unexpected tool " + name)
}

func newFake(pages ...int) *fakeTools {
	return &fakeTools{
		pages:     pages,
		renderers: map[string]bool{"pdftoppm": true},
		tesseract: func(img, lang string) ([]byte, error) {
			return []byte(pageText + " " + filepath.Base(img)), nil
		},
	}
}

func TestResolveOptions(t *testing.T) {
	o := ResolveOptions(Options{})
	assert.Equal(t, 6, o.MaxPages)
	assert.Equal(t, 220, o.DPI)
	assert.Equal(t, 3, o.RemoteMaxPages)
	assert.Equal(t, "rus+eng", o.Language)
	assert.Equal(t, "gpt-4.1-mini", o.RemoteModel)

	o = ResolveOptions(Options{MaxPages: 500, DPI: 10, RemoteMaxPages: -4, Language: "  deu "})
	assert.Equal(t, 30, o.MaxPages)
	assert.Equal(t, 120, o.DPI)
	assert.Equal(t, 1, o.RemoteMaxPages)
	assert.Equal(t, "deu", o.Language)
}

func TestClamp_ZeroMeansDefault(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"unset takes default", 0, 6},
		{"negative clamps to minimum", -1, 1},
		{"far below minimum", -50, 1},
		{"in range", 12, 12},
		{"above maximum", 31, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clamp(tt.in, 1, 30, defaultMaxPages))
		})
	}
	assert.Equal(t, defaultDPI, ResolveOptions(Options{DPI: 0}).DPI)
	assert.Equal(t, 120, ResolveOptions(Options{DPI: -1}).DPI)
}

func TestListRenderedImagesNumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ocr-page-10.png", "ocr-page-2.png", "ocr-page-1.png", "other-1.png", "ocr-page-3.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	got := listRenderedImages(dir, "ocr-page")
	require.Len(t, got, 3)
	assert.Equal(t, "ocr-page-1.png", filepath.Base(got[0]))
	assert.Equal(t, "ocr-page-2.png", filepath.Base(got[1]))
	assert.Equal(t, "ocr-page-10.png", filepath.Base(got[2]))
}

func TestRecognizeLocal(t *testing.T) {
	fake := newFake(1, 2)
	p := NewPipeline(nil, WithRunner(runner.Func(fake.run)))

	res := p.RecognizePDFBytes(context.Background(), []byte("%PDF-1.4"), Options{})
	assert.Equal(t, constants.MethodOCRTesseract, res.Method)
	assert.True(t, strings.HasPrefix(res.Text, "Страница 1\n"+pageText))
	assert.Contains(t, res.Text, "\n\nСтраница 2\n")
	assert.Empty(t, res.Warning)

	_, err := os.Stat(fake.prefixDir)
	assert.True(t, os.IsNotExist(err), "scratch dir must be removed")
}

func TestRendererFallbackOrder(t *testing.T) {
	fake := newFake(1)
	fake.renderers = map[string]bool{"pdftocairo": true}
	p := NewPipeline(nil, WithRunner(runner.Func(fake.run)))

	res := p.RecognizePDFBytes(context.Background(), []byte("%PDF"), Options{})
	assert.Equal(t, constants.MethodOCRTesseract, res.Method)
	assert.Equal(t, []string{"pdftoppm", "pdftocairo", "tesseract"}, fake.calls)
}

func TestNoImages(t *testing.T) {
	fake := newFake()
	fake.renderers = map[string]bool{}
	p := NewPipeline(nil, WithRunner(runner.Func(fake.run)))

	res := p.RecognizePDFBytes(context.Background(), []byte("%PDF"), Options{})
	assert.Equal(t, constants.MethodOCRNoImages, res.Method)
	assert.Empty(t, res.Text)
	assert.NotEmpty(t, res.Warning)
}

func TestTesseractRetriesWithEnglish(t *testing.T) {
	fake := newFake(1)
	var langs []string
	fake.tesseract = func(img, lang string) ([]byte, error) {
		langs = append(langs, lang)
		if lang == "eng" {
			return []byte(pageText), nil
		}
		return []byte("  \n"), nil
	}
	p := NewPipeline(nil, WithRunner(runner.Func(fake.run)))

	res := p.RecognizePDFBytes(context.Background(), []byte("%PDF"), Options{})
	assert.Equal(t, constants.MethodOCRTesseract, res.Method)
	assert.Equal(t, []string{"rus+eng", "eng"}, langs)
}

type fakeVision struct {
	text   string
	images int
}

func (f *fakeVision) RecognizeImages(_ context.Context, _ string, images []llm.ImageInput) (string, error) {
	f.images = len(images)
	return f.text, nil
}

func TestRemoteFallback(t *testing.T) {
	fake := newFake(1, 2, 3, 4)
	fake.tesseract = func(string, string) ([]byte, error) {
		return nil, &runner.ToolError{Tool: "tesseract", Kind: runner.KindUnavailable, Err: os.ErrNotExist}
	}
	vision := &fakeVision{text: pageText + " распознано удаленно"}
	var gotKey string
	p := NewPipeline(nil,
		WithRunner(runner.Func(fake.run)),
		WithVisionFactory(func(apiKey, model string) llm.VisionRecognizer {
			gotKey = apiKey
			return vision
		}),
	)

	res := p.RecognizePDFBytes(context.Background(), []byte("%PDF"), Options{AllowRemote: true, RemoteAPIKey: "k", RemoteMaxPages: 2})
	assert.Equal(t, constants.MethodOCROpenAI, res.Method)
	assert.Equal(t, "k", gotKey)
	assert.Equal(t, 2, vision.images)

	// tesseract is missing, so it must only be tried once
	n := 0
	for _, c := range fake.calls {
		if c == "tesseract" {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestRemoteDisabledGivesEmpty(t *testing.T) {
	fake := newFake(1)
	fake.tesseract = func(string, string) ([]byte, error) { return []byte("###"), nil }
	p := NewPipeline(nil,
		WithRunner(runner.Func(fake.run)),
		WithVisionFactory(func(string, string) llm.VisionRecognizer {
			t.Fatal("remote must not be called without a key")
			return nil
		}),
	)

	res := p.RecognizePDFBytes(context.Background(), []byte("%PDF"), Options{AllowRemote: true})
	assert.Equal(t, constants.MethodOCREmpty, res.Method)
	assert.NotEmpty(t, res.Warning)
}
