package llm

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
)

var imageMimes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// DataURL wraps raw bytes into a base64 data URL.
func DataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ReadAsDataURL loads a rendered page image and returns it as a data URL
// together with the mime type used.
func ReadAsDataURL(path string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	mt, ok := imageMimes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mt = "application/octet-stream"
	}
	return DataURL(b, mt), mt, nil
}
