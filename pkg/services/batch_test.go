package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kerbaras/mangasync/pkg/data"
)

func TestBatchSync(t *testing.T) {
	keys := []data.MediaKey{{ID: 1}, {ID: 2}, {ID: 3}}
	var seen []data.MediaKey

	result := BatchSync(context.Background(), keys, func(ctx context.Context, key data.MediaKey) (*SyncReport, error) {
		seen = append(seen, key)
		if key.ID == 2 {
			return nil, errors.New("boom")
		}
		report := NewSyncReport(key)
		report.Set(data.Anilist, data.OutcomeSuccess, nil)
		return report, nil
	}, nil)

	if len(seen) != 3 {
		t.Errorf("Expected every title to be synced, got %v", seen)
	}
	if result.Stopped || len(result.Remaining) != 0 {
		t.Error("Batch should not be stopped")
	}
	if len(result.Reports) != 2 || len(result.Errors) != 1 {
		t.Errorf("Expected 2 reports and 1 error, got %d and %d", len(result.Reports), len(result.Errors))
	}
	if result.Failed() != 1 {
		t.Errorf("Expected 1 failed title, got %d", result.Failed())
	}
}

func TestBatchSync_CancelStopsBetweenTitles(t *testing.T) {
	keys := []data.MediaKey{{ID: 1}, {ID: 2}, {ID: 3}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var itemErrs []error
	result := BatchSync(ctx, keys, func(itemCtx context.Context, key data.MediaKey) (*SyncReport, error) {
		if key.ID == 2 {
			cancel()
		}
		// The title in flight keeps running.
		itemErrs = append(itemErrs, itemCtx.Err())
		return NewSyncReport(key), nil
	}, nil)

	if !result.Stopped {
		t.Fatal("Expected the batch to stop")
	}
	if len(result.Reports) != 2 {
		t.Errorf("Expected titles 1 and 2 to finish, got %d reports", len(result.Reports))
	}
	if len(result.Remaining) != 1 || result.Remaining[0].ID != 3 {
		t.Errorf("Expected title 3 to remain, got %v", result.Remaining)
	}
	for _, err := range itemErrs {
		if err != nil {
			t.Errorf("In-flight title saw a cancelled context: %v", err)
		}
	}
}

func TestTitleController_SyncAll(t *testing.T) {
	al := &mockService{key: data.Anilist, fetchFunc: listed(data.Anilist, reading(10))}
	first := newTestTitle(reading(1))
	second := newTestTitle(reading(2))
	second.Key = data.MediaKey{Slug: "def"}
	c := newTestController(newMockStore(first, second), nil, nil, al)

	result, err := c.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if len(result.Reports) != 2 {
		t.Errorf("Expected 2 reports, got %d (errors %v)", len(result.Reports), result.Errors)
	}
	if first.Progress.Chapter != 10 || second.Progress.Chapter != 10 {
		t.Errorf("Expected both titles at chapter 10, got %v and %v", first.Progress.Chapter, second.Progress.Chapter)
	}
}
