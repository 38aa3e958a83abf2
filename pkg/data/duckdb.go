package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

const schema = `
CREATE TABLE IF NOT EXISTS titles (
	id         VARCHAR PRIMARY KEY,
	name       VARCHAR,
	status     INTEGER NOT NULL,
	chapter    DOUBLE PRECISION NOT NULL,
	volume     INTEGER,
	score      INTEGER NOT NULL,
	start_date TIMESTAMP,
	end_date   TIMESTAMP,
	in_list    BOOLEAN NOT NULL,
	extra      VARCHAR NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// InitDB opens a title database with the given driver, creating the parent
// directory and the schema when needed. For DriverPostgres, path is a DSN.
func InitDB(driver, path string) (*sql.DB, error) {
	switch driver {
	case DriverDuckDB, DriverSQLite:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func InitDuckDB(path string) (*sql.DB, error) {
	return InitDB(DriverDuckDB, path)
}

// Repository persists titles. Writes are atomic per title; there are no
// cross-title transactions.
type Repository struct {
	db       *sql.DB
	capacity int
	// numbered placeholders ($1, $2...) instead of ?
	numbered bool
}

// NewRepository wraps an initialized duckdb or sqlite database. capacity
// bounds the chapter ledger of loaded titles.
func NewRepository(db *sql.DB, capacity int) *Repository {
	return &Repository{db: db, capacity: capacity}
}

// OpenRepository is InitDB followed by NewRepository.
func OpenRepository(driver, path string, capacity int) (*Repository, error) {
	db, err := InitDB(driver, path)
	if err != nil {
		return nil, err
	}
	repo := NewRepository(db, capacity)
	repo.numbered = driver == DriverPostgres
	return repo, nil
}

func (r *Repository) rebind(query string) string {
	if !r.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// titleExtra holds everything that is not worth a column of its own.
type titleExtra struct {
	Oneshot             bool                    `json:"oneshot,omitempty"`
	LoggedIn            bool                    `json:"logged_in,omitempty"`
	MaxProgress         *Progress               `json:"max_progress,omitempty"`
	Services            map[ServiceKey]MediaKey `json:"services,omitempty"`
	Forced              map[ServiceKey]bool     `json:"forced,omitempty"`
	Chapters            *ChapterLedger          `json:"chapters"`
	VolumeChapterCount  map[int]int             `json:"volume_chapter_count,omitempty"`
	VolumeChapterOffset map[int]int             `json:"volume_chapter_offset,omitempty"`
	VolumeResetChapter  bool                    `json:"volume_reset_chapter,omitempty"`
	LastVisit           time.Time               `json:"last_visit,omitempty"`
	LastChapterID       string                  `json:"last_chapter_id,omitempty"`
	LastRead            time.Time               `json:"last_read,omitempty"`
	HighestChapter      float64                 `json:"highest_chapter,omitempty"`
	Mirrored            MirrorState             `json:"mirrored"`
}

// Save inserts or replaces a title.
func (r *Repository) Save(ctx context.Context, t *Title) error {
	t.mu.Lock()
	extra, err := json.Marshal(titleExtra{
		Oneshot:             t.Progress.Oneshot,
		LoggedIn:            t.LoggedIn,
		MaxProgress:         t.MaxProgress,
		Services:            t.Services,
		Forced:              t.Forced,
		Chapters:            t.Chapters,
		VolumeChapterCount:  t.VolumeChapterCount,
		VolumeChapterOffset: t.VolumeChapterOffset,
		VolumeResetChapter:  t.VolumeResetChapter,
		LastVisit:           t.LastVisit,
		LastChapterID:       t.LastChapterID,
		LastRead:            t.LastRead,
		HighestChapter:      t.HighestChapter,
		Mirrored:            t.Mirrored,
	})
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode title %s: %w", t.Key, err)
	}

	var volume sql.NullInt64
	if t.Progress.Volume != nil {
		volume = sql.NullInt64{Int64: int64(*t.Progress.Volume), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO titles (id, name, status, chapter, volume, score, start_date, end_date, in_list, extra, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			chapter = excluded.chapter,
			volume = excluded.volume,
			score = excluded.score,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			in_list = excluded.in_list,
			extra = excluded.extra,
			updated_at = excluded.updated_at
	`), t.Key.String(), t.Name, int(t.Status), t.Progress.Chapter, volume, t.Score,
		nullTime(t.Start), nullTime(t.End), t.InList, string(extra), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save title %s: %w", t.Key, err)
	}
	return nil
}

// Load returns ErrNotFound when the title was never saved.
func (r *Repository) Load(ctx context.Context, key MediaKey) (*Title, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT id, name, status, chapter, volume, score, start_date, end_date, in_list, extra
		FROM titles WHERE id = ?
	`), key.String())
	t, err := r.scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load title %s: %w", key, err)
	}
	t.Key = key
	return t, nil
}

// List returns every stored title, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]*Title, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, chapter, volume, score, start_date, end_date, in_list, extra
		FROM titles ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var titles []*Title
	for rows.Next() {
		t, err := r.scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// Delete removes a title. Deleting an unknown title is not an error.
func (r *Repository) Delete(ctx context.Context, key MediaKey) error {
	if _, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM titles WHERE id = ?`), key.String()); err != nil {
		return fmt.Errorf("delete title %s: %w", key, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanTitle(row scanner) (*Title, error) {
	var (
		id         string
		name       sql.NullString
		status     int
		volume     sql.NullInt64
		start, end sql.NullTime
		extraRaw   string
	)
	t := NewTitle(MediaKey{}, r.capacity)
	if err := row.Scan(&id, &name, &status, &t.Progress.Chapter, &volume, &t.Score,
		&start, &end, &t.InList, &extraRaw); err != nil {
		return nil, err
	}

	extra := titleExtra{Chapters: NewChapterLedger(r.capacity)}
	if err := json.Unmarshal([]byte(extraRaw), &extra); err != nil {
		return nil, fmt.Errorf("decode title %s: %w", id, err)
	}

	t.Key = ParseMediaKey(id)
	t.Name = name.String
	t.Status = Status(status)
	if volume.Valid {
		t.Progress.Volume = VolumeOf(int(volume.Int64))
	}
	t.Progress.Oneshot = extra.Oneshot
	if start.Valid {
		t.Start = DateOf(start.Time)
	}
	if end.Valid {
		t.End = DateOf(end.Time)
	}
	t.LoggedIn = extra.LoggedIn
	t.MaxProgress = extra.MaxProgress
	if extra.Services != nil {
		t.Services = extra.Services
	}
	if extra.Forced != nil {
		t.Forced = extra.Forced
	}
	if extra.Chapters != nil {
		t.Chapters = extra.Chapters
		t.Chapters.SetCapacity(r.capacity)
	}
	if extra.VolumeChapterCount != nil {
		t.VolumeChapterCount = extra.VolumeChapterCount
	}
	if extra.VolumeChapterOffset != nil {
		t.VolumeChapterOffset = extra.VolumeChapterOffset
	}
	t.VolumeResetChapter = extra.VolumeResetChapter
	t.LastVisit = extra.LastVisit
	t.LastChapterID = extra.LastChapterID
	t.LastRead = extra.LastRead
	t.HighestChapter = extra.HighestChapter
	t.Mirrored = extra.Mirrored
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
