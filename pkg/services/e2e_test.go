package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/integrations"
	"github.com/kerbaras/mangasync/pkg/sources"
	"github.com/kerbaras/mangasync/pkg/utils"
)

// E2E tests for the full sync pipeline against a real store and HTTP adapters

func TestE2E_SyncPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	anilist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"Media":{"id":30013,"title":{"userPreferred":"One Piece"},
			"chapters":null,"volumes":null,"mediaListEntry":{"id":987,"status":"CURRENT","progress":8,
			"progressVolumes":null,"score":0,"startedAt":null,"completedAt":null}}}}`))
	}))
	defer anilist.Close()

	var (
		mu       sync.Mutex
		mirrored []string
	)
	mangadex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			mu.Lock()
			mirrored = append(mirrored, r.Method+" "+r.URL.Path)
			mu.Unlock()
		}
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer mangadex.Close()

	for _, driver := range []string{data.DriverSQLite, data.DriverDuckDB} {
		t.Run(driver, func(t *testing.T) {
			mu.Lock()
			mirrored = nil
			mu.Unlock()

			repo, err := data.OpenRepository(driver, filepath.Join(t.TempDir(), "sync.db"), 50)
			if err != nil {
				t.Fatalf("Failed to open repository: %v", err)
			}
			defer repo.Close()

			registry := integrations.NewRegistry(
				integrations.NewAniList(utils.NewAPI(anilist.URL, utils.WithToken("token"), utils.WithRate(0))),
			)
			md := sources.NewMangaDex(utils.NewAPI(mangadex.URL, utils.WithToken("token"), utils.WithRate(0)), "en")
			controller := NewTitleController(ControllerConfig{
				Store:    repo,
				Registry: registry,
				Source:   md,
				Mirror:   md,
			})

			ctx := context.Background()
			key := data.MediaKey{Slug: "abc"}
			if _, err := controller.Link(ctx, key, data.Anilist, data.MediaKey{ID: 30013}); err != nil {
				t.Fatalf("Link() error = %v", err)
			}
			if _, err := controller.Read(ctx, key, data.Progress{Chapter: 5}, ""); err != nil {
				t.Fatalf("Read() error = %v", err)
			}

			report, err := controller.Sync(ctx, key)
			if err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			if outcome, _ := report.Outcome(data.MangaDex); outcome != data.OutcomeSuccess {
				t.Errorf("Expected md=success, got %s", report)
			}
			// AniList has chapter 8 but no start date: the local one is pushed.
			if outcome, _ := report.Outcome(data.Anilist); outcome != data.OutcomeSuccess {
				t.Errorf("Expected al=success, got %s", report)
			}

			stored, err := repo.Load(ctx, key)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if stored.Progress.Chapter != 8 {
				t.Errorf("Expected stored chapter 8, got %v", stored.Progress.Chapter)
			}
			if stored.Mirrored.Status != data.StatusReading {
				t.Errorf("Expected the mirror state to be stored, got %+v", stored.Mirrored)
			}

			mu.Lock()
			defer mu.Unlock()
			if len(mirrored) != 1 || !strings.HasSuffix(mirrored[0], "/manga/abc/status") {
				t.Errorf("Expected one status push, got %v", mirrored)
			}
		})
	}
}
