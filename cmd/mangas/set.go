package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/data"
)

var setCmd = &cobra.Command{
	Use:   "set [title-id]",
	Short: "Change the status or score of a title",
	Long:  "Change the status or score of a title. Status 'none' removes it from every list on the next sync.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := titleKey(args[0])
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("status") && !cmd.Flags().Changed("score") {
			return errors.New("nothing to change: use --status or --score")
		}

		var t *data.Title
		if cmd.Flags().Changed("status") {
			name, _ := cmd.Flags().GetString("status")
			status, err := data.ParseStatus(name)
			if err != nil {
				return err
			}
			if t, err = rt.controller.SetStatus(cmd.Context(), key, status); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetInt("score")
			if t, err = rt.controller.SetScore(cmd.Context(), key, score); err != nil {
				return err
			}
		}

		fmt.Printf("%s: %s, score %d\n", key, t.Status, t.Score)
		return nil
	},
}

func init() {
	setCmd.Flags().String("status", "", "reading, completed, paused, plan_to_read, dropped, rereading, wont_read or none")
	setCmd.Flags().Int("score", 0, "Score from 0 to 100")
}
