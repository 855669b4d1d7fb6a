package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
)

const (
	textutilTimeout = 15 * time.Second
	maxContainerXML = 12 << 20
)

var officeMIME = map[string]string{
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"rtf":  "application/rtf",
}

// textutil runs `textutil -convert txt -stdout` against a scratch copy of data.
func (e *Extractor) textutil(method constants.Method) func(context.Context, []byte, string) (Result, bool) {
	return func(ctx context.Context, data []byte, ext string) (Result, bool) {
		scratch, err := runner.NewScratch("legal-intake-doc-*", e.logger)
		if err != nil {
			e.logger.Error("extract.scratch.failed", "error", err)
			return Result{}, false
		}
		defer scratch.Close()

		in, err := scratch.WriteFile("input."+ext, data)
		if err != nil {
			return Result{}, false
		}

		cctx, cancel := context.WithTimeout(ctx, textutilTimeout)
		defer cancel()
		out, _, err := e.runner.Run(cctx, "textutil", e.logger, "-convert", "txt", "-stdout", in)
		if err != nil {
			return Result{}, false
		}
		text := strings.TrimSpace(string(out))
		if !textclean.IsUseful(text, ext) {
			return Result{}, false
		}
		return Result{Text: text, Method: method}, true
	}
}

func (e *Extractor) viaDocconv(_ context.Context, data []byte, ext string) (Result, bool) {
	text, err := e.docconv(data, ext)
	if err != nil {
		e.logger.Debug("extract.docconv.failed", "ext", ext, "error", err)
		return Result{}, false
	}
	text = strings.TrimSpace(text)
	if !textclean.IsUseful(text, ext) {
		return Result{}, false
	}
	return Result{Text: text, Method: constants.MethodDocconv}, true
}

func convertWithDocconv(data []byte, ext string) (text string, err error) {
	mimeType, ok := officeMIME[ext]
	if !ok {
		return "", fmt.Errorf("docconv: no mime type for %q", ext)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docconv panic: %v", r)
		}
	}()
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

func (e *Extractor) docxXML(_ context.Context, data []byte, ext string) (Result, bool) {
	xml, err := readDocumentXML(data)
	if err != nil {
		e.logger.Debug("extract.docx_xml.failed", "error", err)
		return Result{}, false
	}
	text := xmlToText(xml)
	if !textclean.IsUseful(text, ext) {
		return Result{}, false
	}
	return Result{Text: text, Method: constants.MethodDocxXML}, true
}

var errContainerTooLarge = errors.New("document.xml exceeds size limit")

// readDocumentXML pulls word/document.xml out of a DOCX container.
func readDocumentXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxContainerXML+1))
	if err != nil {
		return "", err
	}
	if len(b) > maxContainerXML {
		return "", errContainerTooLarge
	}
	return string(b), nil
}

var (
	reTab       = regexp.MustCompile(`(?i)<w:tab[^>]*/>`)
	reBreak     = regexp.MustCompile(`(?i)<w:br[^>]*/>`)
	reParagraph = regexp.MustCompile(`(?i)<w:p[^>]*>`)
	reTag       = regexp.MustCompile(`<[^>]+>`)

	entities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
)

func xmlToText(xml string) string {
	raw := strings.TrimSpace(xml)
	if raw == "" {
		return ""
	}
	raw = reTab.ReplaceAllString(raw, "\t")
	raw = reBreak.ReplaceAllString(raw, "\n")
	raw = reParagraph.ReplaceAllString(raw, "\n")
	raw = reTag.ReplaceAllString(raw, " ")
	return strings.TrimSpace(entities.Replace(raw))
}

func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
