package sources

import (
	"context"

	"github.com/kerbaras/mangasync/pkg/data"
)

// Source is the primary catalog: it knows the titles and their chapter lists.
type Source interface {
	Search(ctx context.Context, query string) ([]Manga, error)
	GetManga(ctx context.Context, id string) (*Manga, error)
	// GetChapters returns the chapter list in reading order.
	GetChapters(ctx context.Context, id string) ([]data.ChapterEntry, error)
}

// Mirror receives the status and score of a title. It does not store
// progress.
type Mirror interface {
	PushStatus(ctx context.Context, key data.MediaKey, status data.Status) (data.Outcome, error)
	// PushScore sends a 0-100 score; 0 removes the rating.
	PushScore(ctx context.Context, key data.MediaKey, score int) (data.Outcome, error)
}
