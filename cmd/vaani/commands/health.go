package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the voice backend",
	Long: `Ask the voice backend for its health status. Exits non-zero when the
backend is unreachable, so the probe works in scripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		hs, err := client.Health(ctx)
		if err != nil {
			fmt.Printf("%s  %s\n", failStyle.Render("FAIL"), client.BaseURL())
			return err
		}

		fmt.Printf("%s  %s %s\n", okStyle.Render("OK"), client.BaseURL(), dimStyle.Render("("+hs.Status+")"))
		if hs.Message != "" {
			fmt.Println(dimStyle.Render(hs.Message))
		}
		return nil
	},
}
