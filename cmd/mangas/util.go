package cmd

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mangasync/pkg/app/components"
	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// titleKey reads a title argument: the MangaDex id of the series.
func titleKey(arg string) (data.MediaKey, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return data.MediaKey{}, fmt.Errorf("empty title id")
	}
	return data.MediaKey{Slug: arg}, nil
}

func printReport(report *services.SyncReport) {
	fmt.Printf("%s  %s\n", report.Title, components.ReportView(report))
	for _, k := range report.Services() {
		if err := report.Err(k); err != nil {
			fmt.Println(styles.StatusError.Render(fmt.Sprintf("  %s: %s", k, err)))
		}
	}
	if missing := report.MissingToken(); len(missing) > 0 {
		fmt.Println(styles.StatusWarning.Render(fmt.Sprintf("  log in to: %v", missing)))
	}
}

func printBatch(keys []data.MediaKey, result *services.BatchResult) {
	for _, key := range keys {
		if err, ok := result.Errors[key]; ok {
			fmt.Printf("%s  %s\n", key, styles.StatusError.Render(err.Error()))
			continue
		}
		if report, ok := result.Reports[key]; ok {
			printReport(report)
		}
	}
	if result.Stopped {
		fmt.Println(styles.StatusWarning.Render(fmt.Sprintf("Stopped: %d title(s) not synced", len(result.Remaining))))
	}
}
