package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/integrations"
	"github.com/kerbaras/mangasync/pkg/sources"
)

// TitleStore is the Persistence of the controller, which also lists titles.
type TitleStore interface {
	Persistence
	List(ctx context.Context) ([]*data.Title, error)
}

// ControllerConfig wires a TitleController.
type ControllerConfig struct {
	Store    TitleStore
	Registry *integrations.Registry
	Source   sources.Source
	Mirror   sources.Mirror
	Metrics  MetricsCollector
	Logger   *slog.Logger
	Options  Options
}

// TitleController is the entry point of the CLI: it loads titles, records
// reading activity and runs syncs.
type TitleController struct {
	store    TitleStore
	registry *integrations.Registry
	source   sources.Source
	mirror   sources.Mirror
	metrics  MetricsCollector
	logger   *slog.Logger
	opts     Options
	events   chan SyncEvent
	now      func() time.Time
}

func NewTitleController(cfg ControllerConfig) *TitleController {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = integrations.NewRegistry()
	}
	if cfg.Options.Capacity <= 0 {
		cfg.Options.Capacity = data.DefaultChaptersSaved
	}
	if len(cfg.Options.Priority) == 0 {
		cfg.Options.Priority = cfg.Registry.Keys()
	}
	return &TitleController{
		store:    cfg.Store,
		registry: cfg.Registry,
		source:   cfg.Source,
		mirror:   cfg.Mirror,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		opts:     cfg.Options,
		events:   make(chan SyncEvent, 100),
		now:      time.Now,
	}
}

// Events returns the channel receiving the progress of every sync.
func (c *TitleController) Events() <-chan SyncEvent {
	return c.events
}

// Options returns the sync options the controller was built with.
func (c *TitleController) Options() Options {
	return c.opts
}

// Orchestrator builds the orchestrator of a loaded title.
func (c *TitleController) Orchestrator(t *data.Title) *Orchestrator {
	return NewOrchestrator(t, Deps{
		Registry: c.registry,
		Store:    c.store,
		Mirror:   c.mirror,
		Metrics:  c.metrics,
		Logger:   c.logger,
		Events:   c.events,
	}, c.opts)
}

// Title loads a stored title.
func (c *TitleController) Title(ctx context.Context, key data.MediaKey) (*data.Title, error) {
	return c.store.Load(ctx, key)
}

// TitleOrNew loads a title, or returns a fresh unsaved one named after the
// catalog entry.
func (c *TitleController) TitleOrNew(ctx context.Context, key data.MediaKey) (*data.Title, error) {
	t, err := c.store.Load(ctx, key)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}
	t = data.NewTitle(key, c.opts.Capacity)
	if c.source != nil && key.Slug != "" {
		manga, err := c.source.GetManga(ctx, key.Slug)
		if err != nil {
			c.logger.Warn("catalog lookup failed", slog.String("title_id", key.String()), slog.Any("error", err))
		} else {
			t.Name = manga.Name
		}
	}
	return t, nil
}

func (c *TitleController) List(ctx context.Context) ([]*data.Title, error) {
	return c.store.List(ctx)
}

// Search looks titles up in the primary catalog.
func (c *TitleController) Search(ctx context.Context, query string) ([]sources.Manga, error) {
	if c.source == nil {
		return nil, errors.New("no catalog configured")
	}
	if query == "" {
		return nil, errors.New("empty query")
	}
	return c.source.Search(ctx, query)
}

// Link sets the key of a title on a remote service. The key is forced: id
// discovery never replaces it.
func (c *TitleController) Link(ctx context.Context, key data.MediaKey, service data.ServiceKey, remote data.MediaKey) (*data.Title, error) {
	if _, ok := c.registry.Get(service); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}
	t, err := c.TitleOrNew(ctx, key)
	if err != nil {
		return nil, err
	}
	t.SetServiceKey(service, remote, true)
	if err := c.store.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Read records that the user opened a chapter. Volume-local numbers are
// converted to the continuous scale first. Reading past the current progress
// moves it forward and fills the ledger below the new chapter.
func (c *TitleController) Read(ctx context.Context, key data.MediaKey, p data.Progress, chapterID string) (*data.Title, error) {
	t, err := c.TitleOrNew(ctx, key)
	if err != nil {
		return nil, err
	}
	now := c.now()
	t.Visit(now)

	continuous := p
	continuous.Chapter = t.ContinuousChapter(p)
	if t.SetProgress(continuous, now) {
		t.InList = true
		t.UpdateChapterList(continuous.Chapter)
	} else {
		t.AddChapter(continuous.Chapter)
	}
	if chapterID != "" {
		t.SetLastRead(chapterID, now)
	}

	if err := c.store.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Unread removes a chapter from the opened ledger.
func (c *TitleController) Unread(ctx context.Context, key data.MediaKey, chapter float64) (*data.Title, error) {
	t, err := c.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !t.RemoveChapter(chapter) {
		return t, nil
	}
	return t, c.store.Save(ctx, t)
}

// SetStatus changes the list status. StatusNone removes the title from every
// remote list on the next sync.
func (c *TitleController) SetStatus(ctx context.Context, key data.MediaKey, status data.Status) (*data.Title, error) {
	t, err := c.TitleOrNew(ctx, key)
	if err != nil {
		return nil, err
	}
	t.Status = status
	t.InList = status != data.StatusNone
	if status == data.StatusCompleted && t.End == nil {
		t.End = data.DateOf(c.now())
	}
	if err := c.store.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetScore changes the score, clamped to 0-100.
func (c *TitleController) SetScore(ctx context.Context, key data.MediaKey, score int) (*data.Title, error) {
	t, err := c.TitleOrNew(ctx, key)
	if err != nil {
		return nil, err
	}
	t.SetScore(score)
	if err := c.store.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ChapterRow is one chapter of the catalog list, renumbered.
type ChapterRow struct {
	data.ChapterEntry
	Continuous float64
	Opened     bool
}

// Chapters fetches the catalog chapter list, stores the renumbering table of
// the title and returns the list with continuous numbers.
func (c *TitleController) Chapters(ctx context.Context, key data.MediaKey) ([]ChapterRow, error) {
	if c.source == nil {
		return nil, errors.New("no catalog configured")
	}
	t, err := c.TitleOrNew(ctx, key)
	if err != nil {
		return nil, err
	}
	entries, err := c.source.GetChapters(ctx, key.Slug)
	if err != nil {
		return nil, err
	}

	table := t.ApplyVolumes(entries)
	numbers := table.Renumber(entries)
	rows := make([]ChapterRow, len(entries))
	for i, e := range entries {
		rows[i] = ChapterRow{ChapterEntry: e, Continuous: numbers[i]}
	}
	opened := t.OpenedChapters()
	for i := range rows {
		rows[i].Opened = containsChapter(opened, rows[i].Continuous)
	}

	if err := c.store.Save(ctx, t); err != nil {
		return nil, err
	}
	return rows, nil
}

func containsChapter(sorted []float64, c float64) bool {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < c {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(sorted) && sorted[lo] == c
}

// Sync runs a full sync of a stored title.
func (c *TitleController) Sync(ctx context.Context, key data.MediaKey) (*SyncReport, error) {
	t, err := c.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.Orchestrator(t).Sync(ctx)
}

// Refresh fetches one service again and syncs the title with it.
func (c *TitleController) Refresh(ctx context.Context, key data.MediaKey, service data.ServiceKey) (*SyncReport, error) {
	t, err := c.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.Orchestrator(t).RefreshService(ctx, service)
}

// SyncAll syncs every stored title. Cancelling ctx stops after the current title.
func (c *TitleController) SyncAll(ctx context.Context) (*BatchResult, error) {
	titles, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]data.MediaKey, len(titles))
	for i, t := range titles {
		keys[i] = t.Key
	}
	return BatchSync(ctx, keys, c.Sync, c.logger), nil
}

// Delete removes a title from every remote list and unfollows it on the
// primary catalog, then removes it from the store.
func (c *TitleController) Delete(ctx context.Context, key data.MediaKey) (*SyncReport, error) {
	t, err := c.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	o := c.Orchestrator(t)
	switch err := o.Initialize(ctx); {
	case errors.Is(err, ErrNoServices):
	case err != nil:
		return nil, err
	default:
		if err := o.WaitInitialize(ctx); err != nil {
			return nil, err
		}
	}
	t.Reset()
	report, err := o.SyncExternal(ctx, false)
	if err != nil {
		return nil, err
	}

	if err := c.store.Delete(ctx, key); err != nil {
		return report, err
	}
	return report, nil
}
