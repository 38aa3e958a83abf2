package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/data"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters [title-id]",
	Short: "List the chapters of a title",
	Long:  "Fetch the MangaDex chapter list, renumbered on one continuous scale, with the chapters you opened",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := titleKey(args[0])
		if err != nil {
			return err
		}
		rows, err := rt.controller.Chapters(cmd.Context(), key)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No chapters found.")
			return nil
		}

		columns := []table.Column{
			{Title: "Vol", Width: 5},
			{Title: "Ch", Width: 8},
			{Title: "#", Width: 8},
			{Title: "Title", Width: 40},
			{Title: "Read", Width: 5},
		}
		tableRows := make([]table.Row, len(rows))
		for i, r := range rows {
			vol := "-"
			if r.Volume != nil {
				vol = fmt.Sprintf("%d", *r.Volume)
			}
			ch := data.FormatChapter(r.Chapter)
			if r.Oneshot {
				ch = "oneshot"
			}
			read := ""
			if r.Opened {
				read = "✓"
			}
			tableRows[i] = table.Row{vol, ch, data.FormatChapter(r.Continuous), truncateString(r.Title, 38), read}
		}

		tbl := table.New(
			table.WithColumns(columns),
			table.WithRows(tableRows),
			table.WithFocused(false),
			table.WithHeight(len(tableRows)),
		)
		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.Bold(false)
		tbl.SetStyles(s)

		fmt.Println(tbl.View())
		return nil
	},
}
