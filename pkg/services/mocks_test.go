package services

import (
	"context"
	"sync"
	"time"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/sources"
)

// Mock implementations for testing

type mockService struct {
	key         data.ServiceKey
	missing     data.FieldSet
	fetchFunc   func(ctx context.Context, key data.MediaKey) (*data.Snapshot, error)
	persistFunc func(ctx context.Context, s *data.Snapshot) (data.Outcome, error)
	deleteFunc  func(ctx context.Context, s *data.Snapshot) (data.Outcome, error)

	mu        sync.Mutex
	fetches   int
	persisted []*data.Snapshot
	deleted   []*data.Snapshot
}

func (m *mockService) Key() data.ServiceKey {
	return m.key
}

func (m *mockService) MissingFields() data.FieldSet {
	return m.missing
}

func (m *mockService) Fetch(ctx context.Context, key data.MediaKey) (*data.Snapshot, error) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, key)
	}
	return &data.Snapshot{Service: m.key, Key: key, LoggedIn: true, Missing: m.missing}, nil
}

func (m *mockService) Persist(ctx context.Context, s *data.Snapshot) (data.Outcome, error) {
	m.mu.Lock()
	copied := *s
	m.persisted = append(m.persisted, &copied)
	m.mu.Unlock()
	if m.persistFunc != nil {
		return m.persistFunc(ctx, s)
	}
	return data.OutcomeSuccess, nil
}

func (m *mockService) Delete(ctx context.Context, s *data.Snapshot) (data.Outcome, error) {
	m.mu.Lock()
	copied := *s
	m.deleted = append(m.deleted, &copied)
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, s)
	}
	return data.OutcomeDeleted, nil
}

func (m *mockService) pushCount() (persisted, deleted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.persisted), len(m.deleted)
}

// listed returns a fetch func serving a fixed list entry.
func listed(service data.ServiceKey, state data.ListState) func(context.Context, data.MediaKey) (*data.Snapshot, error) {
	return func(_ context.Context, key data.MediaKey) (*data.Snapshot, error) {
		return &data.Snapshot{Service: service, Key: key, LoggedIn: true, InList: true, ListState: state}, nil
	}
}

type mockMirror struct {
	pushStatusFunc func(ctx context.Context, key data.MediaKey, status data.Status) (data.Outcome, error)
	pushScoreFunc  func(ctx context.Context, key data.MediaKey, score int) (data.Outcome, error)

	mu       sync.Mutex
	statuses []data.Status
	scores   []int
}

var _ sources.Mirror = (*mockMirror)(nil)

func (m *mockMirror) PushStatus(ctx context.Context, key data.MediaKey, status data.Status) (data.Outcome, error) {
	m.mu.Lock()
	m.statuses = append(m.statuses, status)
	m.mu.Unlock()
	if m.pushStatusFunc != nil {
		return m.pushStatusFunc(ctx, key, status)
	}
	return data.OutcomeSuccess, nil
}

func (m *mockMirror) PushScore(ctx context.Context, key data.MediaKey, score int) (data.Outcome, error) {
	m.mu.Lock()
	m.scores = append(m.scores, score)
	m.mu.Unlock()
	if m.pushScoreFunc != nil {
		return m.pushScoreFunc(ctx, key, score)
	}
	return data.OutcomeSuccess, nil
}

type mockStore struct {
	loadFunc   func(ctx context.Context, key data.MediaKey) (*data.Title, error)
	saveFunc   func(ctx context.Context, t *data.Title) error
	deleteFunc func(ctx context.Context, key data.MediaKey) error

	mu      sync.Mutex
	titles  map[data.MediaKey]*data.Title
	saves   int
	deletes int
}

func newMockStore(titles ...*data.Title) *mockStore {
	m := &mockStore{titles: make(map[data.MediaKey]*data.Title)}
	for _, t := range titles {
		m.titles[t.Key] = t
	}
	return m
}

func (m *mockStore) Load(ctx context.Context, key data.MediaKey) (*data.Title, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.titles[key]
	if !ok {
		return nil, data.ErrNotFound
	}
	return t, nil
}

func (m *mockStore) Save(ctx context.Context, t *data.Title) error {
	m.mu.Lock()
	m.saves++
	m.titles[t.Key] = t
	m.mu.Unlock()
	if m.saveFunc != nil {
		return m.saveFunc(ctx, t)
	}
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key data.MediaKey) error {
	m.mu.Lock()
	m.deletes++
	delete(m.titles, key)
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]*data.Title, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*data.Title, 0, len(m.titles))
	for _, t := range m.titles {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type mockMetrics struct {
	mu        sync.Mutex
	fetches   map[data.ServiceKey]data.Outcome
	pushes    map[data.ServiceKey]data.Outcome
	durations int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		fetches: make(map[data.ServiceKey]data.Outcome),
		pushes:  make(map[data.ServiceKey]data.Outcome),
	}
}

func (m *mockMetrics) RecordFetch(service data.ServiceKey, outcome data.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[service] = outcome
}

func (m *mockMetrics) RecordPush(service data.ServiceKey, outcome data.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes[service] = outcome
}

func (m *mockMetrics) RecordSyncDuration(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations++
}

type mockSource struct {
	searchFunc      func(ctx context.Context, query string) ([]sources.Manga, error)
	getMangaFunc    func(ctx context.Context, id string) (*sources.Manga, error)
	getChaptersFunc func(ctx context.Context, id string) ([]data.ChapterEntry, error)
}

func (m *mockSource) Search(ctx context.Context, query string) ([]sources.Manga, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockSource) GetManga(ctx context.Context, id string) (*sources.Manga, error) {
	if m.getMangaFunc != nil {
		return m.getMangaFunc(ctx, id)
	}
	return &sources.Manga{ID: id}, nil
}

func (m *mockSource) GetChapters(ctx context.Context, id string) ([]data.ChapterEntry, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(ctx, id)
	}
	return nil, nil
}
