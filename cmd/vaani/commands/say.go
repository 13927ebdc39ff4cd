package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaani-app/vaani/internal/playback"
)

var (
	sayLang string
	sayOut  string
)

var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Synthesize speech and play it",
	Long: `Synthesize text with the voice backend and play the result.

Examples:
  vaani say "namaste"
  vaani say --lang hi-IN "आप कैसे हैं"
  vaani say --out greeting.wav "welcome to vaani"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		lang := sayLang
		if lang == "" {
			lang = cfg.LanguageCode
		}
		text := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		speech, err := client.TextToSpeech(ctx, text, lang)
		if err != nil {
			return err
		}

		if sayOut != "" {
			data, err := base64.StdEncoding.DecodeString(speech.AudioBase64)
			if err != nil {
				return fmt.Errorf("backend returned undecodable audio: %w", err)
			}
			if err := os.WriteFile(sayOut, data, 0644); err != nil {
				return err
			}
			fmt.Printf("%s %s (%d bytes)\n", labelStyle.Render("saved"), sayOut, len(data))
			return nil
		}

		// Playback gets its own context so a slow synthesis cannot eat
		// into the playing time
		player := playback.New(cfg.PlaybackSampleRate, playback.DefaultChannels)
		return player.Play(context.Background(), speech.AudioBase64)
	},
}

func init() {
	sayCmd.Flags().StringVar(&sayLang, "lang", "", "language code, e.g. en-IN (default from config)")
	sayCmd.Flags().StringVarP(&sayOut, "out", "o", "", "write the WAV to a file instead of playing it")
}
