package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/integrations"
	"github.com/kerbaras/mangasync/pkg/sources"
)

var (
	ErrNoServices     = errors.New("no services to sync")
	ErrBusy           = errors.New("sync already in progress")
	ErrNotInitialized = errors.New("sync not initialized")
	ErrUnknownService = errors.New("unknown service")
)

// Persistence stores titles.
type Persistence interface {
	Load(ctx context.Context, key data.MediaKey) (*data.Title, error)
	Save(ctx context.Context, t *data.Title) error
	Delete(ctx context.Context, key data.MediaKey) error
}

// MetricsCollector receives sync measurements.
type MetricsCollector interface {
	RecordFetch(service data.ServiceKey, outcome data.Outcome)
	RecordPush(service data.ServiceKey, outcome data.Outcome)
	RecordSyncDuration(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(data.ServiceKey, data.Outcome) {}
func (nopMetrics) RecordPush(data.ServiceKey, data.Outcome)  {}
func (nopMetrics) RecordSyncDuration(time.Duration)          {}

type State int

const (
	StateIdle State = iota
	StateInitializing
	StateMerging
	StatePushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateMerging:
		return "merging"
	case StatePushing:
		return "pushing"
	default:
		return "unknown"
	}
}

// Deps are the collaborators of an Orchestrator. Registry and Store are
// required; everything else may be nil.
type Deps struct {
	Registry *integrations.Registry
	Store    Persistence
	Mirror   sources.Mirror
	Metrics  MetricsCollector
	Logger   *slog.Logger
	// Events receives progress events. Sends never block: events are dropped
	// when the channel is full.
	Events chan<- SyncEvent
}

type fetchResult struct {
	snapshot *data.Snapshot
	err      error
}

// Orchestrator syncs one title with its remote services:
// Initialize and WaitInitialize fetch every snapshot, SyncLocal folds them
// into the title and SyncExternal pushes the title back.
//
// An Orchestrator is the single writer of its title while a phase runs.
type Orchestrator struct {
	title *data.Title
	deps  Deps
	opts  Options
	now   func() time.Time

	mu        sync.Mutex
	state     State
	pending   map[data.ServiceKey]*fetchResult
	done      chan struct{}
	snapshots map[data.ServiceKey]*data.Snapshot
}

func NewOrchestrator(title *data.Title, deps Deps, opts Options) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if len(opts.Priority) == 0 && deps.Registry != nil {
		opts.Priority = deps.Registry.Keys()
	}
	return &Orchestrator{
		title: title,
		deps:  deps,
		opts:  opts,
		now:   time.Now,
	}
}

func (o *Orchestrator) Title() *data.Title {
	return o.title
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns the last fetched snapshot of a service.
func (o *Orchestrator) Snapshot(service data.ServiceKey) (*data.Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.snapshots[service]
	return s, ok
}

func (o *Orchestrator) begin(state State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return fmt.Errorf("%w: %s", ErrBusy, o.state)
	}
	o.state = state
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
}

// services returns the configured services that know this title, in
// priority order.
func (o *Orchestrator) services() []integrations.Service {
	var out []integrations.Service
	for _, s := range o.deps.Registry.Ordered(o.opts.Priority) {
		if _, ok := o.title.ServiceKey(s.Key()); ok {
			out = append(out, s)
		}
	}
	return out
}

// Initialize starts one fetch per configured service and returns without
// waiting. ctx is used by the fetches themselves.
//
// A title that no service knows returns ErrNoServices. The orchestrator is
// then initialized with no snapshots, so SyncExternal still updates the
// primary catalog mirror.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.begin(StateInitializing); err != nil {
		return err
	}
	services := o.services()
	if len(services) == 0 {
		o.mu.Lock()
		if o.snapshots == nil {
			o.snapshots = make(map[data.ServiceKey]*data.Snapshot)
		}
		o.state = StateIdle
		o.mu.Unlock()
		return ErrNoServices
	}

	pending := make(map[data.ServiceKey]*fetchResult, len(services))
	for _, s := range services {
		pending[s.Key()] = &fetchResult{}
	}
	done := make(chan struct{})

	o.mu.Lock()
	o.pending = pending
	o.done = done
	o.mu.Unlock()

	var wg sync.WaitGroup
	sem := o.newSemaphore()
	for _, s := range services {
		key, _ := o.title.ServiceKey(s.Key())
		result := pending[s.Key()]

		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.acquire()
			defer sem.release()

			o.sendEvent(SyncEvent{Title: o.title.Key, Service: s.Key(), Kind: EventFetching})
			result.snapshot, result.err = s.Fetch(ctx, key)
			if result.err == nil && result.snapshot == nil {
				result.err = fmt.Errorf("%s returned no snapshot", s.Key())
			}
			outcome := data.OutcomeOf(result.err)
			o.deps.Metrics.RecordFetch(s.Key(), outcome)
			o.sendEvent(SyncEvent{Title: o.title.Key, Service: s.Key(), Kind: EventFetched, Outcome: outcome, Err: result.err})
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return nil
}

// WaitInitialize waits for every fetch started by Initialize, then folds the
// series length reported by each service into the title. A failed fetch is
// kept as a placeholder snapshot. Calling it again is a no-op.
//
// Cancelling ctx abandons the pending fetches and returns the orchestrator to
// idle without snapshots: Initialize must run again before the other phases.
func (o *Orchestrator) WaitInitialize(ctx context.Context) error {
	o.mu.Lock()
	pending, done := o.pending, o.done
	initialized := o.snapshots != nil
	o.mu.Unlock()

	if pending == nil {
		if initialized {
			return nil
		}
		return ErrNotInitialized
	}

	select {
	case <-done:
	case <-ctx.Done():
		o.mu.Lock()
		if o.done == done {
			o.pending = nil
			o.done = nil
			o.state = StateIdle
		}
		o.mu.Unlock()
		return ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		// Another caller finished the fan-in first.
		return nil
	}

	if o.snapshots == nil {
		o.snapshots = make(map[data.ServiceKey]*data.Snapshot, len(pending))
	}
	for service, result := range pending {
		if result.err != nil {
			key, _ := o.title.ServiceKey(service)
			o.snapshots[service] = data.FailedSnapshot(service, key, result.err)
			o.deps.Logger.Warn("fetch failed",
				slog.String("title_id", o.title.Key.String()),
				slog.String("service", string(service)),
				slog.String("outcome", data.OutcomeOf(result.err).String()),
				slog.Any("error", result.err))
			continue
		}
		o.snapshots[service] = result.snapshot
		o.title.FoldMaxProgress(result.snapshot.MaxProgress)
	}
	o.pending = nil
	o.done = nil
	o.state = StateIdle
	return nil
}

// SyncLocal merges every logged in, listed and more recent snapshot into the
// title, lowest priority first so the highest priority service wins. Keys
// completed by the services are stored as well. The title is saved once when
// anything changed; the result tells whether it did.
func (o *Orchestrator) SyncLocal(ctx context.Context) (bool, error) {
	if err := o.begin(StateMerging); err != nil {
		return false, err
	}
	defer o.end()

	o.mu.Lock()
	snapshots := o.snapshots
	o.mu.Unlock()
	if snapshots == nil {
		return false, ErrNotInitialized
	}

	services := o.services()
	dirty := false
	for _, svc := range slices.Backward(services) {
		s, ok := snapshots[svc.Key()]
		if !ok || s.Failed() {
			continue
		}
		if o.title.DiscoverServiceKey(svc.Key(), s.Key) {
			dirty = true
		}
		if !s.LoggedIn || !s.InList {
			continue
		}
		if data.IsMoreRecent(s, o.title) {
			data.Merge(o.title, s)
			o.title.InList = true
			dirty = true
			o.deps.Logger.Debug("merged snapshot",
				slog.String("title_id", o.title.Key.String()),
				slog.String("service", string(svc.Key())),
				slog.String("progress", o.title.Progress.String()))
		}
	}

	if !dirty {
		return false, nil
	}
	if err := o.deps.Store.Save(ctx, o.title); err != nil {
		return true, fmt.Errorf("save title %s: %w", o.title.Key, err)
	}
	return true, nil
}

// SyncExternal pushes the title to every connected service whose snapshot
// differs from it, or to all of them when autoSync is set. Pushes run
// concurrently and a failing service never affects the others: every
// outcome lands in the returned report under its own key. The primary
// catalog mirror is updated alongside.
func (o *Orchestrator) SyncExternal(ctx context.Context, autoSync bool) (*SyncReport, error) {
	if err := o.begin(StatePushing); err != nil {
		return nil, err
	}
	defer o.end()

	o.mu.Lock()
	snapshots := o.snapshots
	o.mu.Unlock()
	if snapshots == nil {
		return nil, ErrNotInitialized
	}

	start := o.now()
	report := NewSyncReport(o.title.Key)
	log := o.deps.Logger.With(
		slog.String("run_id", report.RunID),
		slog.String("title_id", o.title.Key.String()))

	var wg sync.WaitGroup
	sem := o.newSemaphore()
	for _, svc := range o.services() {
		s, ok := snapshots[svc.Key()]
		if !ok {
			continue
		}
		switch {
		case s.Failed():
			report.Set(svc.Key(), s.FetchOutcome(), s.FetchErr)
			continue
		case !s.LoggedIn:
			report.Set(svc.Key(), data.OutcomeMissingToken, nil)
			continue
		}

		remove := o.title.Status == data.StatusNone
		if remove && !s.InList {
			continue
		}
		if !autoSync && !remove && data.IsSyncedWith(s, o.title) {
			continue
		}
		s.Import(o.title)

		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.acquire()
			defer sem.release()

			o.sendEvent(SyncEvent{Title: o.title.Key, Service: svc.Key(), Kind: EventSyncing})
			var (
				outcome data.Outcome
				err     error
			)
			if remove {
				outcome, err = svc.Delete(ctx, s)
			} else {
				outcome, err = svc.Persist(ctx, s)
			}
			if err != nil && outcome.OK() {
				outcome = data.OutcomeOf(err)
			}
			report.Set(svc.Key(), outcome, err)
			o.deps.Metrics.RecordPush(svc.Key(), outcome)
			o.sendEvent(SyncEvent{Title: o.title.Key, Service: svc.Key(), Kind: EventSynced, Outcome: outcome, Err: err})

			if !outcome.OK() {
				log.Warn("push failed",
					slog.String("service", string(svc.Key())),
					slog.String("outcome", outcome.String()),
					slog.Any("error", err))
			}
		}()
	}

	mirrorChanged := false
	if o.deps.Mirror != nil && o.title.Key.Valid() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mirrorChanged = o.syncMirror(ctx, report, log)
		}()
	}

	wg.Wait()

	if mirrorChanged {
		if err := o.deps.Store.Save(ctx, o.title); err != nil {
			log.Error("save mirror state failed", slog.Any("error", err))
		}
	}

	elapsed := o.now().Sub(start)
	o.deps.Metrics.RecordSyncDuration(elapsed)
	log.Info("sync finished",
		slog.String("report", report.String()),
		slog.Duration("elapsed", elapsed))
	return report, nil
}

// RefreshService fetches one service again and re-runs both sync phases.
func (o *Orchestrator) RefreshService(ctx context.Context, service data.ServiceKey) (*SyncReport, error) {
	svc, ok := o.deps.Registry.Get(service)
	if !ok || !slices.Contains(o.opts.Priority, service) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}
	key, ok := o.title.ServiceKey(service)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no key for %s", ErrUnknownService, service, o.title.Key)
	}
	if err := o.begin(StateInitializing); err != nil {
		return nil, err
	}

	o.sendEvent(SyncEvent{Title: o.title.Key, Service: service, Kind: EventFetching})
	s, err := svc.Fetch(ctx, key)
	if err == nil && s == nil {
		err = fmt.Errorf("%s returned no snapshot", service)
	}
	outcome := data.OutcomeOf(err)
	o.deps.Metrics.RecordFetch(service, outcome)
	o.sendEvent(SyncEvent{Title: o.title.Key, Service: service, Kind: EventFetched, Outcome: outcome, Err: err})

	o.mu.Lock()
	if o.snapshots == nil {
		o.snapshots = make(map[data.ServiceKey]*data.Snapshot)
	}
	if err != nil {
		o.snapshots[service] = data.FailedSnapshot(service, key, err)
	} else {
		o.snapshots[service] = s
		o.title.FoldMaxProgress(s.MaxProgress)
	}
	o.state = StateIdle
	o.mu.Unlock()

	if _, err := o.SyncLocal(ctx); err != nil {
		return nil, err
	}
	return o.SyncExternal(ctx, o.opts.AutoSync)
}

// Sync runs every phase in order. A title without linked services only
// updates the primary catalog mirror.
func (o *Orchestrator) Sync(ctx context.Context) (*SyncReport, error) {
	switch err := o.Initialize(ctx); {
	case errors.Is(err, ErrNoServices):
	case err != nil:
		return nil, err
	default:
		if err := o.WaitInitialize(ctx); err != nil {
			return nil, err
		}
		if _, err := o.SyncLocal(ctx); err != nil {
			return nil, err
		}
	}
	return o.SyncExternal(ctx, o.opts.AutoSync)
}

// sendEvent sends an event (non-blocking)
func (o *Orchestrator) sendEvent(e SyncEvent) {
	if o.deps.Events == nil {
		return
	}
	select {
	case o.deps.Events <- e:
	default:
		// Channel full, skip this update
	}
}

// semaphore bounds concurrent requests; a nil semaphore never blocks.
type semaphore chan struct{}

func (o *Orchestrator) newSemaphore() semaphore {
	if o.opts.Concurrency <= 0 {
		return nil
	}
	return make(semaphore, o.opts.Concurrency)
}

func (s semaphore) acquire() {
	if s != nil {
		s <- struct{}{}
	}
}

func (s semaphore) release() {
	if s != nil {
		<-s
	}
}
