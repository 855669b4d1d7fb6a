package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/legal-intake/constants"
)

// AllowedExt reports whether the inbox picks up files with this extension.
func AllowedExt(ext string) bool {
	switch constants.MapExtToClass(ext) {
	case constants.ClassText, constants.ClassOffice, constants.ClassPDF, constants.ClassMedia:
		return true
	}
	return false
}

// Eligible reports whether path should be processed: a known extension,
// not hidden and not one of our own sidecars.
func Eligible(path string) bool {
	if IsHidden(path) || IsSidecar(path) {
		return false
	}
	return AllowedExt(filepath.Ext(path))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func IsSidecar(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), SidecarSuffix)
}
