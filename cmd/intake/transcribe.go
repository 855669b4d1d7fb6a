package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/transcribe"
)

var transcribePrompt string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe an audio or video recording",
	Long: `Transcribes a recording synchronously. Files above the direct upload
threshold are split with ffmpeg and transcribed part by part.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribePrompt, "prompt", "", "context hint passed to the transcription model")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if components.Transcriber == nil {
		return common.NewAppError("BACKEND_MISSING", "OPENAI_API_KEY is not set", common.ErrBackendMissing)
	}
	path := args[0]
	if !transcribe.IsMediaFile(path) {
		return common.NewAppError("UNSUPPORTED", "not a supported media file: "+path, common.ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > components.Config.Transcription.MaxBytes {
		return common.NewAppError("PAYLOAD_TOO_LARGE", "file exceeds TRANSCRIPTION_MAX_BYTES", common.ErrPayloadTooLarge)
	}

	name := filepath.Base(path)
	res, err := components.Transcriber.Transcribe(cmd.Context(), transcribe.Request{
		FileName: name,
		MimeType: transcribe.MimeTypeFor(filepath.Ext(name)),
		Data:     data,
		Prompt:   transcribePrompt,
	}, func(p transcribe.Progress) {
		if p.PartsTotal > 0 {
			cmd.PrintErrf("[%3d%%] %s (%d/%d)\n", p.Percent, p.Message, p.PartIndex, p.PartsTotal)
			return
		}
		cmd.PrintErrf("[%3d%%] %s\n", p.Percent, p.Message)
	})
	if err != nil {
		return err
	}
	cmd.PrintErrf("mode: %s, parts: %d\n", res.Mode, res.Parts)
	cmd.Println(res.Text)
	return nil
}
