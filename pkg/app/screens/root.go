package screens

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

// Controller is what the screens need from the title controller.
type Controller interface {
	List(ctx context.Context) ([]*data.Title, error)
	Sync(ctx context.Context, key data.MediaKey) (*services.SyncReport, error)
	Events() <-chan services.SyncEvent
}

type SwitchScreenMsg struct {
	Screen string
	Data   interface{}
}

type screenType int

const (
	libraryView screenType = iota
	syncView
)

type RootScreen struct {
	ctx        context.Context
	controller Controller

	currentView screenType
	library     *LibraryScreen
	monitor     *MonitorScreen

	width  int
	height int
}

func NewRootScreen(ctx context.Context, controller Controller) *RootScreen {
	return &RootScreen{
		ctx:         ctx,
		controller:  controller,
		currentView: libraryView,
		library:     NewLibraryScreen(ctx, controller),
	}
}

func (r *RootScreen) Init() tea.Cmd {
	return r.library.Init()
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// A running batch stops at the next title instead.
			if !r.syncing() {
				return r, tea.Quit
			}
		}

	case SwitchScreenMsg:
		switch msg.Screen {
		case "library":
			r.currentView = libraryView
			cmd = r.library.Init()
		case "sync":
			keys, _ := msg.Data.([]data.MediaKey)
			r.monitor = NewMonitorScreen(r.ctx, r.controller, keys, false)
			r.monitor.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height})
			r.currentView = syncView
			cmd = r.monitor.Init()
		}
		return r, cmd
	}

	// Forward message to active screen
	switch r.currentView {
	case libraryView:
		newModel, newCmd := r.library.Update(msg)
		r.library = newModel.(*LibraryScreen)
		return r, newCmd
	case syncView:
		if r.monitor != nil {
			newModel, newCmd := r.monitor.Update(msg)
			r.monitor = newModel.(*MonitorScreen)
			return r, newCmd
		}
	}

	return r, cmd
}

func (r *RootScreen) syncing() bool {
	return r.currentView == syncView && r.monitor != nil && r.monitor.running
}

func (r *RootScreen) View() string {
	tabs := r.renderTabs()

	var content string
	switch r.currentView {
	case libraryView:
		content = r.library.View()
	case syncView:
		if r.monitor != nil {
			content = r.monitor.View()
		}
	}

	return fmt.Sprintf("%s\n\n%s", tabs, content)
}

func (r *RootScreen) renderTabs() string {
	libraryTab := "Library"
	syncTab := "Sync"

	if r.currentView == libraryView {
		libraryTab = styles.ActiveTabStyle.Render(libraryTab)
		syncTab = styles.InactiveTabStyle.Render(syncTab)
	} else {
		libraryTab = styles.InactiveTabStyle.Render(libraryTab)
		syncTab = styles.ActiveTabStyle.Render(syncTab)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, libraryTab, syncTab)
}
