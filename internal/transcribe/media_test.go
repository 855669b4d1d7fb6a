package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessInputExtension(t *testing.T) {
	tests := []struct {
		name, file, mime, want string
	}{
		{"name wins", "Call.WAV", "video/mp4", "wav"},
		{"mp3 name", "a.mp3", "", "mp3"},
		{"mime wav", "blob", "audio/x-wav", "wav"},
		{"mime quicktime", "", "video/quicktime", "mov"},
		{"mime webm", "rec", "audio/webm;codecs=opus", "webm"},
		{"unknown", "file.xyz", "application/octet-stream", "bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessInputExtension(tt.file, tt.mime))
		})
	}
}

func TestIsMediaFile(t *testing.T) {
	assert.True(t, IsMediaFile("встреча.M4A"))
	assert.False(t, IsMediaFile("contract.pdf"))
}
