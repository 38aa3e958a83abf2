package services

import (
	"context"
	"log/slog"

	"github.com/kerbaras/mangasync/pkg/data"
)

// BatchResult holds the outcome of a batch sync, per title.
type BatchResult struct {
	// Keys is the batch, in sync order.
	Keys    []data.MediaKey
	Reports map[data.MediaKey]*SyncReport
	Errors  map[data.MediaKey]error
	// Stopped is set when ctx was cancelled before every title was synced.
	Stopped bool
	// Remaining lists the titles that were not synced.
	Remaining []data.MediaKey
}

// SyncFunc syncs one title.
type SyncFunc func(ctx context.Context, key data.MediaKey) (*SyncReport, error)

// BatchSync syncs titles one after the other. Cancelling ctx stops the batch
// at the next title boundary: the title being synced is never interrupted.
func BatchSync(ctx context.Context, keys []data.MediaKey, sync SyncFunc, logger *slog.Logger) *BatchResult {
	if logger == nil {
		logger = slog.Default()
	}
	result := &BatchResult{
		Keys:    keys,
		Reports: make(map[data.MediaKey]*SyncReport, len(keys)),
		Errors:  make(map[data.MediaKey]error),
	}
	itemCtx := context.WithoutCancel(ctx)

	for i, key := range keys {
		if ctx.Err() != nil {
			result.Stopped = true
			result.Remaining = append(result.Remaining, keys[i:]...)
			logger.Info("batch sync stopped",
				slog.Int("done", i),
				slog.Int("remaining", len(keys)-i))
			break
		}

		report, err := sync(itemCtx, key)
		if err != nil {
			result.Errors[key] = err
			logger.Warn("title sync failed", slog.String("title_id", key.String()), slog.Any("error", err))
			continue
		}
		result.Reports[key] = report
	}
	return result
}

// Failed counts titles that errored or had at least one failing service.
func (r *BatchResult) Failed() int {
	n := len(r.Errors)
	for _, report := range r.Reports {
		if len(report.Failed()) > 0 {
			n++
		}
	}
	return n
}
