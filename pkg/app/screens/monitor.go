package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/mangasync/pkg/app/components"
	"github.com/kerbaras/mangasync/pkg/app/styles"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

// MonitorScreen runs a batch sync and follows its events. A standalone
// monitor quits once the batch is over.
type MonitorScreen struct {
	ctx        context.Context
	cancel     context.CancelFunc
	controller Controller
	keys       []data.MediaKey
	standalone bool

	tracker *components.SyncTracker
	spinner spinner.Model
	running bool
	result  *services.BatchResult
	// done is closed when the batch is over and stops the event listener.
	done chan struct{}

	width  int
	height int
}

func NewMonitorScreen(ctx context.Context, controller Controller, keys []data.MediaKey, standalone bool) *MonitorScreen {
	ctx, cancel := context.WithCancel(ctx)
	drainEvents(controller.Events())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusActive

	return &MonitorScreen{
		ctx:        ctx,
		cancel:     cancel,
		controller: controller,
		keys:       keys,
		standalone: standalone,
		tracker:    components.NewSyncTracker(80),
		spinner:    sp,
		running:    true,
		done:       make(chan struct{}),
	}
}

// drainEvents drops events left over from an earlier batch.
func drainEvents(events <-chan services.SyncEvent) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

func (s *MonitorScreen) Init() tea.Cmd {
	return tea.Batch(
		s.spinner.Tick,
		s.runSync,
		s.listenForEvents,
	)
}

func (s *MonitorScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.tracker.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Stops after the current title.
			s.cancel()
		case "esc":
			if !s.running && !s.standalone {
				return s, func() tea.Msg {
					return SwitchScreenMsg{Screen: "library"}
				}
			}
		}

	case spinner.TickMsg:
		if !s.running {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case services.SyncEvent:
		s.tracker.Update(msg)
		if !s.running {
			return s, nil
		}
		return s, s.listenForEvents

	case syncDoneMsg:
		if !s.running {
			return s, nil
		}
		s.running = false
		s.result = msg.result
		s.cancel()
		close(s.done)
		if s.standalone {
			return s, tea.Quit
		}
	}

	return s, nil
}

func (s *MonitorScreen) View() string {
	var b strings.Builder

	if s.running {
		b.WriteString(fmt.Sprintf("%s Syncing %d title(s)...\n\n", s.spinner.View(), len(s.keys)))
	} else {
		b.WriteString(styles.TitleStyle.Render("Sync finished"))
		b.WriteString("\n")
	}

	b.WriteString(s.tracker.View())

	if s.result != nil {
		b.WriteString("\n")
		b.WriteString(s.summary())
	}

	if !s.standalone {
		help := "q: stop after current title"
		if !s.running {
			help = "esc: back • q: quit"
		}
		b.WriteString(styles.HelpStyle.Render(help))
	}
	return b.String()
}

func (s *MonitorScreen) summary() string {
	var b strings.Builder
	for _, key := range s.keys {
		if err, ok := s.result.Errors[key]; ok {
			b.WriteString(fmt.Sprintf("%s  %s\n", key, styles.StatusError.Render(err.Error())))
			continue
		}
		if report, ok := s.result.Reports[key]; ok {
			b.WriteString(fmt.Sprintf("%s  %s\n", key, components.ReportView(report)))
		}
	}
	if s.result.Stopped {
		b.WriteString(styles.StatusWarning.Render(fmt.Sprintf("Stopped: %d title(s) not synced", len(s.result.Remaining))))
		b.WriteString("\n")
	}
	return b.String()
}

// Result is the batch outcome, nil while the sync runs.
func (s *MonitorScreen) Result() *services.BatchResult {
	return s.result
}

type syncDoneMsg struct {
	result *services.BatchResult
}

func (s *MonitorScreen) runSync() tea.Msg {
	return syncDoneMsg{result: services.BatchSync(s.ctx, s.keys, s.controller.Sync, nil)}
}

func (s *MonitorScreen) listenForEvents() tea.Msg {
	select {
	case e := <-s.controller.Events():
		return e
	case <-s.done:
		return nil
	}
}
