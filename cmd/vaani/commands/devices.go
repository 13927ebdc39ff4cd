package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaani-app/vaani/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `List the capture devices PortAudio can see. The system default is
marked, as is the device currently selected in the config.`,
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

		devices, err := driver.ListDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println(dimStyle.Render("no input devices found"))
			return nil
		}

		fmt.Printf("%s  %s\n", labelStyle.Render("  ID"), labelStyle.Render("Device"))
		for _, d := range devices {
			marks := ""
			if d.IsDefault {
				marks += "  (default)"
			}
			if d.ID == cfg.AudioDeviceID {
				marks += "  (selected)"
			}
			fmt.Printf("%4d  %s%s\n", d.ID, d.Name, dimStyle.Render(marks))
		}
		if cfg.AudioDeviceID == -1 {
			fmt.Println(dimStyle.Render("\nselected: system default"))
		}
		return nil
	},
}
