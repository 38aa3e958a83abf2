package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/integrations"
	"github.com/kerbaras/mangasync/pkg/sources"
)

func newTestController(store *mockStore, source sources.Source, mirror sources.Mirror, services ...*mockService) *TitleController {
	registry := integrations.NewRegistry()
	for _, s := range services {
		registry.Register(s)
	}
	return NewTitleController(ControllerConfig{
		Store:    store,
		Registry: registry,
		Source:   source,
		Mirror:   mirror,
	})
}

func volumeEntry(id string, chapter float64, volume int) data.ChapterEntry {
	return data.ChapterEntry{ID: id, Chapter: chapter, Volume: data.VolumeOf(volume)}
}

func TestNewTitleController(t *testing.T) {
	c := newTestController(newMockStore(), nil, nil,
		&mockService{key: data.MyAnimeList}, &mockService{key: data.Anilist})

	if c.Events() == nil {
		t.Error("Events channel not initialized")
	}
	opts := c.Options()
	if opts.Capacity != data.DefaultChaptersSaved {
		t.Errorf("Expected default capacity, got %d", opts.Capacity)
	}
	if len(opts.Priority) != 2 || opts.Priority[0] != data.Anilist {
		t.Errorf("Expected priority to default to the registered services, got %v", opts.Priority)
	}
}

func TestTitleController_TitleOrNew(t *testing.T) {
	source := &mockSource{getMangaFunc: func(_ context.Context, id string) (*sources.Manga, error) {
		return &sources.Manga{ID: id, Name: "Berserk"}, nil
	}}
	c := newTestController(newMockStore(), source, nil)

	title, err := c.TitleOrNew(context.Background(), data.MediaKey{Slug: "abc"})
	if err != nil {
		t.Fatalf("TitleOrNew() error = %v", err)
	}
	if title.Name != "Berserk" {
		t.Errorf("Expected the catalog name, got %q", title.Name)
	}

	if _, err := c.Title(context.Background(), data.MediaKey{Slug: "abc"}); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("A new title must not be saved, got %v", err)
	}
}

func TestTitleController_Read(t *testing.T) {
	store := newMockStore()
	c := newTestController(store, nil, nil)
	key := data.MediaKey{Slug: "abc"}

	title, err := c.Read(context.Background(), key, data.Progress{Chapter: 4}, "ch-4")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if title.Progress.Chapter != 4 || title.Status != data.StatusReading {
		t.Errorf("Expected reading chapter 4, got %s %s", title.Status, title.Progress)
	}
	if got := title.OpenedChapters(); len(got) != 4 {
		t.Errorf("Expected chapters 1-4 opened, got %v", got)
	}
	if title.LastChapterID != "ch-4" {
		t.Errorf("Expected last chapter ch-4, got %q", title.LastChapterID)
	}

	// Going back only marks the chapter opened.
	title, err = c.Read(context.Background(), key, data.Progress{Chapter: 2.5}, "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if title.Progress.Chapter != 4 {
		t.Errorf("Expected progress to stay at 4, got %v", title.Progress.Chapter)
	}
	if got := title.OpenedChapters(); len(got) != 5 || got[2] != 2.5 {
		t.Errorf("Expected 2.5 to be added, got %v", got)
	}
	if store.saveCount() != 2 {
		t.Errorf("Expected a save per read, got %d", store.saveCount())
	}

	title, err = c.Unread(context.Background(), key, 2.5)
	if err != nil {
		t.Fatalf("Unread() error = %v", err)
	}
	if len(title.OpenedChapters()) != 4 {
		t.Errorf("Expected 2.5 to be removed, got %v", title.OpenedChapters())
	}
}

func TestTitleController_ChaptersRenumbersResetSeries(t *testing.T) {
	source := &mockSource{getChaptersFunc: func(_ context.Context, id string) ([]data.ChapterEntry, error) {
		return []data.ChapterEntry{
			volumeEntry("a", 1, 1),
			volumeEntry("b", 2, 1),
			volumeEntry("c", 1, 2),
			volumeEntry("d", 2, 2),
		}, nil
	}}
	c := newTestController(newMockStore(), source, nil)
	key := data.MediaKey{Slug: "abc"}

	rows, err := c.Chapters(context.Background(), key)
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	want := []float64{1, 2, 3, 4}
	for i, row := range rows {
		if row.Continuous != want[i] {
			t.Errorf("Row %d: expected %v, got %v", i, want[i], row.Continuous)
		}
	}

	// Chapter 1 of volume 2 is chapter 3 on the continuous scale.
	title, err := c.Read(context.Background(), key, data.Progress{Chapter: 1, Volume: data.VolumeOf(2)}, "c")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if title.Progress.Chapter != 3 {
		t.Errorf("Expected continuous chapter 3, got %v", title.Progress.Chapter)
	}

	rows, err = c.Chapters(context.Background(), key)
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	opened := []bool{true, true, true, false}
	for i, row := range rows {
		if row.Opened != opened[i] {
			t.Errorf("Row %d (%v): expected opened=%v", i, row.Continuous, opened[i])
		}
	}
}

func TestTitleController_ReadResetSeries(t *testing.T) {
	key := data.MediaKey{Slug: "abc"}
	stored := data.NewTitle(key, data.DefaultChaptersSaved)
	stored.MaxProgress = &data.Progress{Chapter: 4}
	source := &mockSource{getChaptersFunc: func(_ context.Context, id string) ([]data.ChapterEntry, error) {
		return []data.ChapterEntry{
			volumeEntry("a", 1, 1),
			volumeEntry("b", 2, 1),
			volumeEntry("c", 1, 2),
			volumeEntry("d", 2, 2),
		}, nil
	}}
	c := newTestController(newMockStore(stored), source, nil)

	if _, err := c.Chapters(context.Background(), key); err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}

	steps := []struct {
		chapter float64
		volume  int
		want    float64
		status  data.Status
	}{
		{1, 1, 1, data.StatusReading},
		{1, 2, 3, data.StatusReading},
		{2, 2, 4, data.StatusCompleted},
	}
	for _, step := range steps {
		title, err := c.Read(context.Background(), key, data.Progress{Chapter: step.chapter, Volume: data.VolumeOf(step.volume)}, "")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if title.Progress.Chapter != step.want {
			t.Errorf("Read(vol %d ch %v): expected progress %v, got %v", step.volume, step.chapter, step.want, title.Progress.Chapter)
		}
		if title.Status != step.status {
			t.Errorf("Read(vol %d ch %v): expected status %s, got %s", step.volume, step.chapter, step.status, title.Status)
		}
	}
}

func TestTitleController_SyncMirrorsUnlinkedTitle(t *testing.T) {
	title := data.NewTitle(data.MediaKey{Slug: "abc"}, 10)
	title.Status = data.StatusReading
	title.Score = 80
	mirror := &mockMirror{}
	c := newTestController(newMockStore(title), nil, mirror, &mockService{key: data.Anilist})

	report, err := c.Sync(context.Background(), title.Key)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if outcome, _ := report.Outcome(data.MangaDex); outcome != data.OutcomeSuccess {
		t.Errorf("Expected md=success, got %s", report)
	}
	if len(mirror.statuses) != 1 || len(mirror.scores) != 1 {
		t.Errorf("Expected a status and a score push, got %v %v", mirror.statuses, mirror.scores)
	}
}

func TestTitleController_Link(t *testing.T) {
	store := newMockStore()
	c := newTestController(store, nil, nil, &mockService{key: data.Anilist})
	key := data.MediaKey{Slug: "abc"}

	if _, err := c.Link(context.Background(), key, data.Kitsu, data.MediaKey{ID: 3}); !errors.Is(err, ErrUnknownService) {
		t.Errorf("Expected ErrUnknownService, got %v", err)
	}

	title, err := c.Link(context.Background(), key, data.Anilist, data.MediaKey{ID: 30013})
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if remote, ok := title.ServiceKey(data.Anilist); !ok || remote.ID != 30013 {
		t.Errorf("Expected al key 30013, got %v", remote)
	}
	if !title.Forced[data.Anilist] {
		t.Error("Expected a linked key to be forced")
	}
}

func TestTitleController_SyncAndRefresh(t *testing.T) {
	al := &mockService{key: data.Anilist, fetchFunc: listed(data.Anilist, reading(12))}
	title := newTestTitle(reading(3))
	store := newMockStore(title)
	c := newTestController(store, nil, nil, al)

	if _, err := c.Sync(context.Background(), data.MediaKey{Slug: "missing"}); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	report, err := c.Sync(context.Background(), title.Key)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if title.Progress.Chapter != 12 {
		t.Errorf("Expected chapter 12, got %v", title.Progress.Chapter)
	}
	if report.Len() != 0 {
		t.Errorf("Expected nothing to push, got %s", report)
	}

	if _, err := c.Refresh(context.Background(), title.Key, data.Anilist); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if al.fetches != 2 {
		t.Errorf("Expected a second fetch, got %d", al.fetches)
	}
}

func TestTitleController_Delete(t *testing.T) {
	t.Run("removes remote entries", func(t *testing.T) {
		al := &mockService{key: data.Anilist, fetchFunc: listed(data.Anilist, reading(3))}
		mirror := &mockMirror{}
		title := newTestTitle(reading(3))
		title.Mirrored = title.MirrorTarget()
		store := newMockStore(title)
		c := newTestController(store, nil, mirror, al)

		report, err := c.Delete(context.Background(), title.Key)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if outcome, _ := report.Outcome(data.Anilist); outcome != data.OutcomeDeleted {
			t.Errorf("Expected al=deleted, got %s", report)
		}
		if len(mirror.statuses) != 1 || mirror.statuses[0] != data.StatusNone {
			t.Errorf("Expected the catalog to unfollow, got %v", mirror.statuses)
		}
		if _, err := store.Load(context.Background(), title.Key); !errors.Is(err, data.ErrNotFound) {
			t.Errorf("Expected the title to be deleted, got %v", err)
		}
	})

	t.Run("unfollows without linked services", func(t *testing.T) {
		title := data.NewTitle(data.MediaKey{Slug: "abc"}, 10)
		title.Status = data.StatusReading
		title.Mirrored = title.MirrorTarget()
		mirror := &mockMirror{}
		store := newMockStore(title)
		c := newTestController(store, nil, mirror, &mockService{key: data.Anilist})

		report, err := c.Delete(context.Background(), title.Key)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if len(mirror.statuses) != 1 || mirror.statuses[0] != data.StatusNone {
			t.Errorf("Expected the catalog to unfollow, got %v", mirror.statuses)
		}
		if _, ok := report.Outcome(data.MangaDex); !ok {
			t.Errorf("Expected an md entry, got %s", report)
		}
		if store.deletes != 1 {
			t.Errorf("Expected the title to be deleted, got %d deletes", store.deletes)
		}
	})

	t.Run("local only", func(t *testing.T) {
		title := data.NewTitle(data.MediaKey{Slug: "abc"}, 10)
		store := newMockStore(title)
		c := newTestController(store, nil, nil, &mockService{key: data.Anilist})

		report, err := c.Delete(context.Background(), title.Key)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if report.Len() != 0 || store.deletes != 1 {
			t.Errorf("Expected a local delete only, got %s (%d deletes)", report, store.deletes)
		}
	})
}

func TestTitleController_Search(t *testing.T) {
	source := &mockSource{searchFunc: func(_ context.Context, query string) ([]sources.Manga, error) {
		return []sources.Manga{{ID: "1", Name: query}}, nil
	}}
	c := newTestController(newMockStore(), source, nil)

	if _, err := c.Search(context.Background(), ""); err == nil {
		t.Error("Expected an error for an empty query")
	}
	results, err := c.Search(context.Background(), "berserk")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Name != "berserk" {
		t.Errorf("Unexpected results %v", results)
	}
}

func TestTitleController_SetStatusAndScore(t *testing.T) {
	store := newMockStore()
	c := newTestController(store, nil, nil)
	key := data.MediaKey{Slug: "abc"}

	title, err := c.SetStatus(context.Background(), key, data.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if !title.InList || title.End == nil {
		t.Errorf("Expected a listed, ended title, got inList=%v end=%v", title.InList, title.End)
	}

	title, err = c.SetScore(context.Background(), key, 140)
	if err != nil {
		t.Fatalf("SetScore() error = %v", err)
	}
	if title.Score != 100 {
		t.Errorf("Expected the score to be clamped to 100, got %d", title.Score)
	}

	title, err = c.SetStatus(context.Background(), key, data.StatusNone)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if title.InList {
		t.Error("Expected StatusNone to leave the list")
	}
	if store.saveCount() != 3 {
		t.Errorf("Expected 3 saves, got %d", store.saveCount())
	}
}
