package components

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
)

type TitleListItem struct {
	Title *data.Title
}

type TitleList struct {
	Items         []TitleListItem
	SelectedIndex int
	Width         int
	Height        int
}

func NewTitleList() *TitleList {
	return &TitleList{
		Items:         []TitleListItem{},
		SelectedIndex: 0,
		Width:         80,
		Height:        20,
	}
}

func (m *TitleList) SetItems(items []TitleListItem) {
	m.Items = items
	if m.SelectedIndex >= len(items) && len(items) > 0 {
		m.SelectedIndex = len(items) - 1
	}
	if len(items) == 0 {
		m.SelectedIndex = 0
	}
}

func (m *TitleList) Next() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex++
	if m.SelectedIndex >= len(m.Items) {
		m.SelectedIndex = 0
	}
}

func (m *TitleList) Prev() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex--
	if m.SelectedIndex < 0 {
		m.SelectedIndex = len(m.Items) - 1
	}
}

func (m *TitleList) Selected() *TitleListItem {
	if len(m.Items) == 0 || m.SelectedIndex >= len(m.Items) {
		return nil
	}
	return &m.Items[m.SelectedIndex]
}

func (m *TitleList) View() string {
	if len(m.Items) == 0 {
		emptyMsg := styles.MutedStyle.Render("No titles tracked yet")
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, emptyMsg)
	}

	var b strings.Builder
	for i, item := range m.Items {
		cardStyle := styles.CardStyle
		if i == m.SelectedIndex {
			cardStyle = styles.ActiveCardStyle
		}
		card := cardStyle.Width(max(m.Width-4, 20)).Render(TitleCard(item.Title))
		b.WriteString(card)
		b.WriteString("\n")
	}

	return b.String()
}

// TitleCard renders the local state of a title.
func TitleCard(t *data.Title) string {
	name := t.Name
	if name == "" {
		name = t.Key.String()
	}

	status := styles.ListStatusStyle(t.Status).Render(t.Status.String())
	progress := styles.TextStyle.Render(ProgressText(t))
	line := fmt.Sprintf("%s • %s", status, progress)
	if t.Score > 0 {
		line += fmt.Sprintf(" • score %d", t.Score)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.TitleStyle.UnsetMarginBottom().Render(name),
		line,
		styles.MutedStyle.Render("Services: "+serviceList(t)),
	)
}

func serviceList(t *data.Title) string {
	if len(t.Services) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(t.Services))
	for service, key := range t.Services {
		keys = append(keys, fmt.Sprintf("%s:%s", service, key))
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}
