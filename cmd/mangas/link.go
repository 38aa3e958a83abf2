package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/data"
)

var linkCmd = &cobra.Command{
	Use:   "link [title-id] [service] [remote-id]",
	Short: "Link a title to its entry on a list service",
	Long:  "Set the id of a title on a list service, for example: mangasync link <id> al 30013",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := titleKey(args[0])
		if err != nil {
			return err
		}
		remote := data.ParseMediaKey(args[2])
		if !remote.Valid() {
			return fmt.Errorf("invalid remote id %q", args[2])
		}

		t, err := rt.controller.Link(cmd.Context(), key, data.ServiceKey(args[1]), remote)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s linked to %s %s\n", key, args[1], remote)
		if t.Name == "" {
			fmt.Println("💡 Run 'mangasync sync' to fetch the remote entry.")
		}
		return nil
	},
}
