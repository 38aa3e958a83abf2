package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/mangasync/pkg/app/screens"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

type App struct {
	controller screens.Controller
}

func NewApp(controller screens.Controller) *App {
	return &App{controller: controller}
}

// Run starts the full screen library browser.
func (a *App) Run(ctx context.Context) error {
	model := screens.NewRootScreen(ctx, a.controller)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// RunSync syncs keys inline, showing every service as it progresses.
func (a *App) RunSync(ctx context.Context, keys []data.MediaKey) (*services.BatchResult, error) {
	model := screens.NewMonitorScreen(ctx, a.controller, keys, true)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	monitor, ok := final.(*screens.MonitorScreen)
	if !ok || monitor.Result() == nil {
		return nil, fmt.Errorf("sync interrupted")
	}
	return monitor.Result(), nil
}
