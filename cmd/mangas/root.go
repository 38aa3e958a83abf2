package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/app"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mangasync",
	Short: "Keep your manga reading progress in sync",
	Long:  "Track reading progress locally and mirror it to AniList and the MangaDex follow list",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return openRuntime()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRuntime()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Launch TUI by default
		return app.NewApp(rt.controller).Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.mangasync/config.yaml)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(syncAllCmd)
	rootCmd.AddCommand(deleteCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
