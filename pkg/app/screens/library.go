package screens

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/mangasync/pkg/app/components"
	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
)

type LibraryScreen struct {
	ctx        context.Context
	controller Controller
	titleList  *components.TitleList
	width      int
	height     int
	err        error
}

func NewLibraryScreen(ctx context.Context, controller Controller) *LibraryScreen {
	return &LibraryScreen{
		ctx:        ctx,
		controller: controller,
		titleList:  components.NewTitleList(),
	}
}

func (s *LibraryScreen) Init() tea.Cmd {
	return s.loadLibrary
}

func (s *LibraryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.titleList.Width = msg.Width - 4
		s.titleList.Height = msg.Height - 10

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.titleList.Prev()
		case "down", "j":
			s.titleList.Next()
		case "r":
			return s, s.loadLibrary
		case "enter", "s":
			selected := s.titleList.Selected()
			if selected != nil {
				keys := []data.MediaKey{selected.Title.Key}
				return s, func() tea.Msg {
					return SwitchScreenMsg{Screen: "sync", Data: keys}
				}
			}
		case "a":
			keys := make([]data.MediaKey, len(s.titleList.Items))
			for i, item := range s.titleList.Items {
				keys[i] = item.Title.Key
			}
			return s, func() tea.Msg {
				return SwitchScreenMsg{Screen: "sync", Data: keys}
			}
		}

	case libraryLoadedMsg:
		s.titleList.SetItems(msg.items)
		s.err = msg.err
	}

	return s, nil
}

func (s *LibraryScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Library")

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		errorMsg += "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k: up • ↓/j: down • enter/s: sync title • a: sync all • r: reload • q: quit",
	)

	return fmt.Sprintf("%s\n\n%s%s\n%s", header, errorMsg, s.titleList.View(), help)
}

type libraryLoadedMsg struct {
	items []components.TitleListItem
	err   error
}

func (s *LibraryScreen) loadLibrary() tea.Msg {
	titles, err := s.controller.List(s.ctx)
	if err != nil {
		return libraryLoadedMsg{err: err}
	}

	slices.SortFunc(titles, func(a, b *data.Title) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	items := make([]components.TitleListItem, len(titles))
	for i, t := range titles {
		items[i] = components.TitleListItem{Title: t}
	}
	return libraryLoadedMsg{items: items}
}
