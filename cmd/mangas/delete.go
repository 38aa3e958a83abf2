package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [title-id]",
	Short: "Stop tracking a title",
	Long:  "Remove a title from every linked list, unfollow it on MangaDex and delete it locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := titleKey(args[0])
		if err != nil {
			return err
		}
		t, err := rt.controller.Title(cmd.Context(), key)
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			name := t.Name
			if name == "" {
				name = key.String()
			}
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s from every list?", name)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&yes).
				Run()
			if err != nil {
				return err
			}
			if !yes {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		report, err := rt.controller.Delete(cmd.Context(), key)
		if report != nil {
			printReport(report)
		}
		if err != nil {
			return err
		}
		fmt.Printf("🗑️  %s deleted\n", key)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
