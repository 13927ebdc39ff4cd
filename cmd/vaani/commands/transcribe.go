package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/wav"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Send a WAV recording to speech-to-text",
	Long: `Send an existing WAV recording to the voice backend and print the
transcript to stdout.

Examples:
  vaani transcribe clip.wav
  vaani transcribe clip.wav > transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		pcm, format, err := wav.Decode(data)
		if err != nil {
			return fmt.Errorf("%s is not a usable WAV file: %w", args[0], err)
		}

		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf(
			"clip: %s, %d Hz, %d channel(s)",
			format.Duration(len(pcm)).Round(10*time.Millisecond), format.SampleRate, format.Channels,
		)))

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		tr, err := client.SpeechToText(ctx, audio.Clip{PCM: pcm, Format: format})
		if err != nil {
			return err
		}

		if tr.LanguageCode != "" {
			fmt.Fprintln(os.Stderr, dimStyle.Render("language: "+tr.LanguageCode))
		}
		fmt.Println(tr.Transcript)
		return nil
	},
}
