package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/app/components"
	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
)

var showCmd = &cobra.Command{
	Use:   "show [title-id]",
	Short: "Show the local state of a title",
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

		fmt.Println(styles.CardStyle.Render(components.TitleCard(t)))
		if t.Start != nil {
			fmt.Printf("Started:   %s\n", t.Start.Format("2006-01-02"))
		}
		if t.End != nil {
			fmt.Printf("Finished:  %s\n", t.End.Format("2006-01-02"))
		}
		if !t.LastRead.IsZero() {
			fmt.Printf("Last read: %s (%s)\n", t.LastRead.Format("2006-01-02 15:04"), t.LastChapterID)
		}
		fmt.Printf("MangaDex:  %s, score %d\n", t.Mirrored.Status, t.Mirrored.Score)

		opened := t.OpenedChapters()
		fmt.Printf("Opened:    %d chapter(s)", len(opened))
		if len(opened) > 0 {
			fmt.Printf(", %s to %s", data.FormatChapter(opened[0]), data.FormatChapter(opened[len(opened)-1]))
		}
		fmt.Println()
		return nil
	},
}
