package services

import (
	"context"
	"log/slog"

	"github.com/kerbaras/mangasync/pkg/data"
)

// syncMirror sends status and score to the primary catalog when they differ
// from what it last accepted. The cached state is updated before the requests
// and rolled back field by field on failure, so a failed field is retried on
// the next sync. It reports whether the cached state changed.
func (o *Orchestrator) syncMirror(ctx context.Context, report *SyncReport, log *slog.Logger) bool {
	o.mu.Lock()
	previous := o.title.Mirrored
	target := o.title.MirrorTarget()
	if previous == target {
		o.mu.Unlock()
		return false
	}
	o.title.Mirrored = target
	o.mu.Unlock()

	o.sendEvent(SyncEvent{Title: o.title.Key, Service: data.MangaDex, Kind: EventSyncing})

	var (
		result  = data.OutcomeSuccess
		lastErr error
	)
	record := func(outcome data.Outcome, err error, rollback func()) {
		if err != nil && outcome.OK() {
			outcome = data.OutcomeOf(err)
		}
		if !outcome.OK() {
			o.mu.Lock()
			rollback()
			o.mu.Unlock()
			log.Warn("mirror update failed",
				slog.String("service", string(data.MangaDex)),
				slog.String("outcome", outcome.String()),
				slog.Any("error", err))
		}
		if result.OK() {
			result, lastErr = outcome, err
		}
	}

	if previous.Status != target.Status {
		outcome, err := o.deps.Mirror.PushStatus(ctx, o.title.Key, target.Status)
		record(outcome, err, func() { o.title.Mirrored.Status = previous.Status })
	}
	if previous.Score != target.Score {
		outcome, err := o.deps.Mirror.PushScore(ctx, o.title.Key, target.Score)
		record(outcome, err, func() { o.title.Mirrored.Score = previous.Score })
	}

	report.Set(data.MangaDex, result, lastErr)
	o.deps.Metrics.RecordPush(data.MangaDex, result)
	o.sendEvent(SyncEvent{Title: o.title.Key, Service: data.MangaDex, Kind: EventSynced, Outcome: result, Err: lastErr})

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.title.Mirrored != previous
}
