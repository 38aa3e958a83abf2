package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/app/components"
	"github.com/kerbaras/mangasync/pkg/data"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tracked title",
	Long:  "Display the local state of every tracked title in a formatted table",
	RunE: func(cmd *cobra.Command, args []string) error {
		titles, err := rt.controller.List(cmd.Context())
		if err != nil {
			return err
		}

		if len(titles) == 0 {
			fmt.Println("📚 No titles tracked yet. Use 'mangasync search' to find one.")
			return nil
		}
		slices.SortFunc(titles, func(a, b *data.Title) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})

		columns := []table.Column{
			{Title: "Name", Width: 32},
			{Title: "ID", Width: 36},
			{Title: "Status", Width: 12},
			{Title: "Progress", Width: 18},
			{Title: "Score", Width: 6},
			{Title: "Services", Width: 10},
		}

		rows := []table.Row{}
		for _, t := range titles {
			score := "-"
			if t.Score > 0 {
				score = fmt.Sprintf("%d", t.Score)
			}
			rows = append(rows, table.Row{
				truncateString(t.Name, 30),
				t.Key.String(),
				t.Status.String(),
				components.ProgressText(t),
				score,
				fmt.Sprintf("%d", len(t.Services)),
			})
		}

		tbl := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		tbl.SetStyles(s)

		fmt.Printf("\n📚 Library (%d titles)\n\n", len(titles))
		fmt.Println(tbl.View())
		return nil
	},
}
