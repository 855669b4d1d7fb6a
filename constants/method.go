package constants

import (
	"fmt"
	"strings"
)

// Method tags which strategy produced an extraction result.
type Method string

const (
	MethodEmpty             Method = "empty"
	MethodPlainText         Method = "plain-text"
	MethodTextutil          Method = "textutil"
	MethodDocconv           Method = "docconv"
	MethodDocxXML           Method = "docx-xml"
	MethodTextutilPDF       Method = "textutil-pdf"
	MethodPDFFallback       Method = "pdf-fallback"
	MethodOCRTesseract      Method = "pdf-ocr-tesseract"
	MethodOCROpenAI         Method = "pdf-ocr-openai"
	MethodOCRNoImages       Method = "pdf-ocr-no-images"
	MethodOCREmpty          Method = "pdf-ocr-empty"
	MethodPrintableFallback Method = "printable-fallback"
)

// UnsupportedMethod builds the tag used when every strategy failed.
func UnsupportedMethod(ext string) Method {
	if ext == "" {
		ext = "binary"
	}
	return Method(fmt.Sprintf("unsupported-%s", ext))
}

// IsUnsupported reports whether m is an UnsupportedMethod tag.
func (m Method) IsUnsupported() bool {
	return strings.HasPrefix(string(m), "unsupported-")
}
