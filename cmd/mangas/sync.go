package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/app"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

var syncCmd = &cobra.Command{
	Use:   "sync [title-id...]",
	Short: "Sync titles with every linked service",
	Long:  "Fetch every linked service, keep the most recent progress and push it back everywhere",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := make([]data.MediaKey, len(args))
		for i, arg := range args {
			key, err := titleKey(arg)
			if err != nil {
				return err
			}
			keys[i] = key
		}
		plain, _ := cmd.Flags().GetBool("plain")
		return runBatch(cmd, keys, plain)
	},
}

var syncAllCmd = &cobra.Command{
	Use:   "sync-all",
	Short: "Sync every tracked title",
	Long:  "Sync every tracked title one after the other. Ctrl-C stops after the current title.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			result, err := rt.controller.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			printBatch(result.Keys, result)
			return nil
		}

		titles, err := rt.controller.List(cmd.Context())
		if err != nil {
			return err
		}
		keys := make([]data.MediaKey, len(titles))
		for i, t := range titles {
			keys[i] = t.Key
		}
		return runBatch(cmd, keys, false)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [title-id] [service]",
	Short: "Fetch one service again and sync with it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := titleKey(args[0])
		if err != nil {
			return err
		}
		report, err := rt.controller.Refresh(cmd.Context(), key, data.ServiceKey(args[1]))
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

func runBatch(cmd *cobra.Command, keys []data.MediaKey, plain bool) error {
	var (
		result *services.BatchResult
		err    error
	)
	if plain {
		result = services.BatchSync(cmd.Context(), keys, rt.controller.Sync, rt.logger)
	} else {
		result, err = app.NewApp(rt.controller).RunSync(cmd.Context(), keys)
		if err != nil {
			return err
		}
	}
	printBatch(keys, result)
	return nil
}

func init() {
	syncCmd.Flags().Bool("plain", false, "Print the reports without the live view")
	syncAllCmd.Flags().Bool("plain", false, "Print the reports without the live view")
}
