package sources

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/utils"
)

const MangaDexURL = "https://api.mangadex.org"

const feedPageSize = 500

// Manga is a catalog entry.
type Manga struct {
	ID   string
	Name string
}

type mangaResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Title    map[string]string   `json:"title"`
		AltTitle []map[string]string `json:"altTitles"`
	} `json:"attributes"`
}

func (m *mangaResource) toManga(language string) *Manga {
	name := m.Attributes.Title[language]
	if name == "" {
		name = m.Attributes.Title["en"]
	}
	if name == "" {
		for _, alt := range m.Attributes.AltTitle {
			if n := alt[language]; n != "" {
				name = n
				break
			}
		}
	}
	if name == "" {
		for _, n := range m.Attributes.Title {
			name = n
			break
		}
	}
	return &Manga{ID: m.ID, Name: name}
}

type chapterResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Title    *string `json:"title"`
		Language string  `json:"translatedLanguage"`
		Volume   *string `json:"volume"`
		Number   *string `json:"chapter"`
	} `json:"attributes"`
}

func (c *chapterResource) toEntry() data.ChapterEntry {
	e := data.ChapterEntry{ID: c.ID, Language: c.Attributes.Language}
	if c.Attributes.Title != nil {
		e.Title = *c.Attributes.Title
	}
	if c.Attributes.Volume != nil {
		if v, err := strconv.Atoi(strings.TrimSpace(*c.Attributes.Volume)); err == nil {
			e.Volume = data.VolumeOf(v)
		}
	}
	number := ""
	if c.Attributes.Number != nil {
		number = strings.TrimSpace(*c.Attributes.Number)
	}
	n, err := strconv.ParseFloat(number, 64)
	if number == "" || err != nil {
		e.Oneshot = true
		return e
	}
	e.Chapter = n
	return e
}

// MangaDex is the primary catalog and mirror.
type MangaDex struct {
	api      *utils.API
	language string
}

func NewMangaDex(api *utils.API, language string) *MangaDex {
	if language == "" {
		language = "en"
	}
	return &MangaDex{api: api, language: language}
}

func (m *MangaDex) Search(ctx context.Context, query string) ([]Manga, error) {
	var mangas struct {
		Data []mangaResource `json:"data"`
	}
	params := url.Values{"title": {query}, "limit": {"20"}}
	if _, err := m.api.Get(ctx, "/manga", params, &mangas); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	out := make([]Manga, len(mangas.Data))
	for i, manga := range mangas.Data {
		out[i] = *manga.toManga(m.language)
	}
	return out, nil
}

func (m *MangaDex) GetManga(ctx context.Context, id string) (*Manga, error) {
	var manga struct {
		Data mangaResource `json:"data"`
	}
	if _, err := m.api.Get(ctx, "/manga/"+url.PathEscape(id), nil, &manga); err != nil {
		return nil, fmt.Errorf("get manga %s: %w", id, err)
	}
	return manga.Data.toManga(m.language), nil
}

// GetChapters walks the whole feed, ordered by volume then chapter.
func (m *MangaDex) GetChapters(ctx context.Context, id string) ([]data.ChapterEntry, error) {
	var out []data.ChapterEntry
	for offset := 0; ; {
		params := url.Values{
			"translatedLanguage[]": {m.language},
			"order[volume]":        {"asc"},
			"order[chapter]":       {"asc"},
			"limit":                {strconv.Itoa(feedPageSize)},
			"offset":               {strconv.Itoa(offset)},
		}
		var feed struct {
			Data  []chapterResource `json:"data"`
			Total int               `json:"total"`
		}
		if _, err := m.api.Get(ctx, "/manga/"+url.PathEscape(id)+"/feed", params, &feed); err != nil {
			return nil, fmt.Errorf("get chapters %s: %w", id, err)
		}
		for _, c := range feed.Data {
			out = append(out, c.toEntry())
		}
		offset += len(feed.Data)
		if len(feed.Data) == 0 || offset >= feed.Total {
			return out, nil
		}
	}
}

var mangadexStatuses = map[data.Status]string{
	data.StatusReading:    "reading",
	data.StatusCompleted:  "completed",
	data.StatusPaused:     "on_hold",
	data.StatusPlanToRead: "plan_to_read",
	data.StatusDropped:    "dropped",
	data.StatusRereading:  "re_reading",
	data.StatusWontRead:   "dropped",
}

// PushStatus sets the follow status. StatusNone unfollows the title.
func (m *MangaDex) PushStatus(ctx context.Context, key data.MediaKey, status data.Status) (data.Outcome, error) {
	if !m.api.HasToken() {
		return data.OutcomeMissingToken, nil
	}
	var body struct {
		Status *string `json:"status"`
	}
	if name, ok := mangadexStatuses[status]; ok {
		body.Status = &name
	}
	outcome, err := m.api.Post(ctx, "/manga/"+url.PathEscape(key.Slug)+"/status", body, nil)
	if err != nil {
		return outcome, fmt.Errorf("push status %s: %w", key, err)
	}
	return outcome, nil
}

// PushScore maps the 0-100 score onto the 1-10 rating.
func (m *MangaDex) PushScore(ctx context.Context, key data.MediaKey, score int) (data.Outcome, error) {
	if !m.api.HasToken() {
		return data.OutcomeMissingToken, nil
	}
	path := "/rating/" + url.PathEscape(key.Slug)
	if score <= 0 {
		outcome, err := m.api.Delete(ctx, path, nil)
		if err != nil {
			return outcome, fmt.Errorf("delete rating %s: %w", key, err)
		}
		return data.OutcomeDeleted, nil
	}
	body := map[string]int{"rating": RatingOf(score)}
	outcome, err := m.api.Post(ctx, path, body, nil)
	if err != nil {
		return outcome, fmt.Errorf("push rating %s: %w", key, err)
	}
	return outcome, nil
}

// RatingOf converts a 1-100 score to a 1-10 rating.
func RatingOf(score int) int {
	return min(max(int(math.Round(float64(score)/10)), 1), 10)
}
