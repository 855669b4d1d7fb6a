package constants

import (
	"path/filepath"
	"strings"
)

// FileClass groups extensions that share an extraction path.
type FileClass string

const (
	ClassText    FileClass = "TEXT"
	ClassOffice  FileClass = "OFFICE"
	ClassPDF     FileClass = "PDF"
	ClassMedia   FileClass = "MEDIA"
	ClassUnknown FileClass = "UNKNOWN"
)

// TextExtensions are decoded directly as UTF-8.
var TextExtensions = map[string]struct{}{
	"txt":  {},
	"md":   {},
	"csv":  {},
	"json": {},
	"log":  {},
}

// OfficeExtensions go through the document converters.
var OfficeExtensions = map[string]struct{}{
	"doc":  {},
	"docx": {},
	"rtf":  {},
}

// MediaExtensions holds the extensions accepted for transcription.
var MediaExtensions = map[string]struct{}{
	"mp3":  {},
	"wav":  {},
	"m4a":  {},
	"ogg":  {},
	"mp4":  {},
	"mov":  {},
	"webm": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtOf returns the normalized extension of a file name.
func ExtOf(name string) string {
	return NormalizeExt(filepath.Ext(name))
}

// MapExtToClass maps a normalized extension to its FileClass.
func MapExtToClass(ext string) FileClass {
	ext = NormalizeExt(ext)
	if _, ok := TextExtensions[ext]; ok {
		return ClassText
	}
	if _, ok := OfficeExtensions[ext]; ok {
		return ClassOffice
	}
	if ext == "pdf" {
		return ClassPDF
	}
	if _, ok := MediaExtensions[ext]; ok {
		return ClassMedia
	}
	return ClassUnknown
}

// IsDocumentExt reports whether ext can be fed to the document extractor
// as a first-class attachment.
func IsDocumentExt(ext string) bool {
	switch MapExtToClass(ext) {
	case ClassText, ClassOffice, ClassPDF:
		return true
	}
	return false
}
