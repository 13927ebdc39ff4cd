package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/level"
)

const meterWidth = 40

var meterSeconds int

var meterCmd = &cobra.Command{
	Use:   "meter",
	Short: "Show a live microphone level bar",
	Long: `Open the configured input device and render the live input level at
the sampling cadence. Doubles as a capture self-test: a bar that never
moves means the microphone is not delivering audio.

Examples:
  vaani meter
  vaani meter --seconds 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		driver, err := audio.NewPortAudioDriver()
		if err != nil {
			return fmt.Errorf("audio driver unavailable: %w", err)
		}
		defer driver.Close()

		capture := audio.DefaultConfig()
		capture.DeviceID = cfg.AudioDeviceID
		if err := driver.Open(capture); err != nil {
			return err
		}
		defer driver.Release()

		analyzer := level.NewAnalyzer(time.Duration(cfg.LevelRefreshMs) * time.Millisecond)
		samples, err := analyzer.Start(driver)
		if err != nil {
			return err
		}
		defer analyzer.Stop()

		fmt.Println(dimStyle.Render(fmt.Sprintf("listening for %ds, speak into the microphone (Ctrl+C to stop)", meterSeconds)))

		deadline := time.After(time.Duration(meterSeconds) * time.Second)
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)

		peak := 0.0
		for {
			select {
			case s := <-samples:
				if s.Level > peak {
					peak = s.Level
				}
				fmt.Printf("\r%s %5.1f%%", barStyle.Render(meterGlyphs(s.Level, meterWidth)), s.Level*100)
			case <-deadline:
				fmt.Printf("\n%s %.1f%%\n", dimStyle.Render("peak"), peak*100)
				return nil
			case <-interrupt:
				fmt.Printf("\n%s %.1f%%\n", dimStyle.Render("peak"), peak*100)
				return nil
			}
		}
	},
}

// meterGlyphs renders a level in [0,1] as a fixed-width bar
func meterGlyphs(lv float64, width int) string {
	if lv < 0 {
		lv = 0
	}
	if lv > 1 {
		lv = 1
	}
	filled := int(lv*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func init() {
	meterCmd.Flags().IntVar(&meterSeconds, "seconds", 5, "how long to keep the meter open")
}
