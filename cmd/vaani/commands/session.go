package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect backend conversation sessions",
}

var sessionInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Print a conversation session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		raw, err := client.Session(ctx, args[0])
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			// Not JSON after all; show it anyway
			fmt.Println(string(raw))
			return nil
		}
		fmt.Println(buf.String())
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation session on the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if err := client.DeleteSession(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("session %s deleted\n", args[0])
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionInfoCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}
