package transcribe

import (
	"strings"

	"github.com/joseph-ayodele/legal-intake/constants"
)

var nameExtensions = []string{"wav", "m4a", "ogg", "mp4", "mov", "webm", "mp3"}

var mimeHints = []struct{ fragment, ext string }{
	{"wav", "wav"},
	{"mp4", "mp4"},
	{"quicktime", "mov"},
	{"ogg", "ogg"},
	{"webm", "webm"},
}

// GuessInputExtension picks the container extension ffmpeg should see:
// the filename suffix first, then the mime type, else "bin".
func GuessInputExtension(fileName, mimeType string) string {
	lower := strings.ToLower(fileName)
	for _, ext := range nameExtensions {
		if strings.HasSuffix(lower, "."+ext) {
			return ext
		}
	}
	mime := strings.ToLower(mimeType)
	for _, h := range mimeHints {
		if strings.Contains(mime, h.fragment) {
			return h.ext
		}
	}
	return "bin"
}

// IsMediaFile reports whether the file name carries an accepted media extension.
func IsMediaFile(fileName string) bool {
	_, ok := constants.MediaExtensions[constants.ExtOf(fileName)]
	return ok
}

// MimeTypeFor returns a best-effort mime type for a media extension.
func MimeTypeFor(ext string) string {
	switch constants.NormalizeExt(ext) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "m4a":
		return "audio/mp4"
	case "ogg":
		return "audio/ogg"
	case "mp4":
		return "video/mp4"
	case "mov":
		return "video/quicktime"
	case "webm":
		return "video/webm"
	}
	return "application/octet-stream"
}
