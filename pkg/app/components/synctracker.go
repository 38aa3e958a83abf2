package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

// SyncTracker keeps the latest event of every title and service pair.
type SyncTracker struct {
	entries map[string]*services.SyncEvent
	order   []string
	width   int
}

func NewSyncTracker(width int) *SyncTracker {
	return &SyncTracker{
		entries: make(map[string]*services.SyncEvent),
		width:   width,
	}
}

func (p *SyncTracker) SetWidth(width int) {
	p.width = width
}

func (p *SyncTracker) Update(e services.SyncEvent) {
	key := e.Title.String() + ":" + string(e.Service)
	if _, ok := p.entries[key]; !ok {
		p.order = append(p.order, key)
	}
	event := e // Copy
	p.entries[key] = &event
}

func (p *SyncTracker) Clear() {
	p.entries = make(map[string]*services.SyncEvent)
	p.order = nil
}

// HasActive reports a request still in flight.
func (p *SyncTracker) HasActive() bool {
	for _, e := range p.entries {
		if e.Kind == services.EventFetching || e.Kind == services.EventSyncing {
			return true
		}
	}
	return false
}

// Counts returns how many tracked services are idle, and how many there are.
func (p *SyncTracker) Counts() (finished, total int) {
	for _, e := range p.entries {
		if e.Kind == services.EventFetched || e.Kind == services.EventSynced {
			finished++
		}
	}
	return finished, len(p.entries)
}

// Failures counts the services whose last request failed.
func (p *SyncTracker) Failures() int {
	n := 0
	for _, e := range p.entries {
		if (e.Kind == services.EventFetched || e.Kind == services.EventSynced) && !e.Outcome.OK() {
			n++
		}
	}
	return n
}

func (p *SyncTracker) View() string {
	if len(p.entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Services"))
	b.WriteString("\n")

	finished, total := p.Counts()
	b.WriteString(renderProgressBar(finished, total, p.width-4))
	b.WriteString("\n\n")

	for _, key := range p.order {
		e := p.entries[key]
		label := fmt.Sprintf("%-12s %-4s", e.Title, e.Service)
		b.WriteString(styles.TextStyle.Render(label))
		b.WriteString(" ")
		b.WriteString(eventText(e))
		b.WriteString("\n")

		if e.Err != nil {
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("  Error: %s", e.Err)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func eventText(e *services.SyncEvent) string {
	switch e.Kind {
	case services.EventFetching, services.EventSyncing:
		return styles.StatusActive.Render(e.Kind.String() + "...")
	case services.EventFetched:
		if e.Outcome.OK() {
			return styles.MutedStyle.Render("fetched")
		}
		return styles.OutcomeStyle(e.Outcome).Render("fetch " + e.Outcome.String())
	default:
		return styles.OutcomeStyle(e.Outcome).Render(e.Outcome.String())
	}
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressBarStyle.Render(bar)
}

// ReportView renders the outcome of every service of a report on one line.
func ReportView(report *services.SyncReport) string {
	keys := report.Services()
	if len(keys) == 0 {
		return styles.MutedStyle.Render("up to date")
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		outcome, _ := report.Outcome(k)
		parts[i] = fmt.Sprintf("%s %s", k, styles.OutcomeStyle(outcome).Render(outcome.String()))
	}
	return strings.Join(parts, "  ")
}

// ProgressText is the reading position of a title, with the series length
// when known.
func ProgressText(t *data.Title) string {
	text := t.Progress.String()
	if t.MaxProgress != nil && t.MaxProgress.Chapter > 0 {
		text += " / " + data.FormatChapter(t.MaxProgress.Chapter)
	}
	return text
}
