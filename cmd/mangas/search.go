package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/app/styles"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for manga",
	Long:  "Search MangaDex and mark the results you already track",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		results, err := rt.controller.Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		titles, err := rt.controller.List(cmd.Context())
		if err != nil {
			return err
		}
		tracked := make(map[string]string, len(titles))
		for _, t := range titles {
			tracked[t.Key.Slug] = t.Status.String()
		}

		header := lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true)
		cell := lipgloss.NewStyle().Padding(0, 1)

		tbl := table.New().
			Border(lipgloss.HiddenBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				if col == 3 {
					return cell.Foreground(styles.Success)
				}
				return cell
			}).
			Headers("#", "Name", "ID", "Tracked")

		for i, manga := range results {
			tbl.Row(fmt.Sprintf("%d", i+1), truncateString(manga.Name, 50), manga.ID, tracked[manga.ID])
		}

		fmt.Println(tbl)
		fmt.Println(styles.MutedStyle.Render("Start tracking a title with: mangasync read <id> <chapter>"))
		return nil
	},
}
