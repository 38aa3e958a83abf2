package integrations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/utils"
)

const AniListURL = "https://graphql.anilist.co"

const anilistFetchQuery = `query ($id: Int) {
  Media(id: $id, type: MANGA) {
    id
    title { userPreferred }
    chapters
    volumes
    mediaListEntry {
      id
      status
      progress
      progressVolumes
      score(format: POINT_100)
      startedAt { year month day }
      completedAt { year month day }
    }
  }
}`

const anilistSaveMutation = `mutation ($mediaId: Int, $status: MediaListStatus, $progress: Int, $progressVolumes: Int,
  $scoreRaw: Int, $startedAt: FuzzyDateInput, $completedAt: FuzzyDateInput) {
  SaveMediaListEntry(mediaId: $mediaId, status: $status, progress: $progress, progressVolumes: $progressVolumes,
    scoreRaw: $scoreRaw, startedAt: $startedAt, completedAt: $completedAt) {
    id
  }
}`

const anilistDeleteMutation = `mutation ($id: Int) {
  DeleteMediaListEntry(id: $id) { deleted }
}`

var anilistStatuses = map[data.Status]string{
	data.StatusReading:    "CURRENT",
	data.StatusCompleted:  "COMPLETED",
	data.StatusPaused:     "PAUSED",
	data.StatusPlanToRead: "PLANNING",
	data.StatusDropped:    "DROPPED",
	data.StatusRereading:  "REPEATING",
	// AniList has no "won't read" list.
	data.StatusWontRead: "DROPPED",
}

// AniList is the GraphQL list adapter for anilist.co.
type AniList struct {
	api *utils.API
}

// NewAniList builds the adapter on top of a configured API client. Without a
// token every fetch reports a logged out snapshot.
func NewAniList(api *utils.API) *AniList {
	return &AniList{api: api}
}

func (a *AniList) Key() data.ServiceKey {
	return data.Anilist
}

func (a *AniList) MissingFields() data.FieldSet {
	return 0
}

type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

func (d *fuzzyDate) time() *time.Time {
	if d == nil || d.Year == nil {
		return nil
	}
	month, day := 1, 1
	if d.Month != nil {
		month = *d.Month
	}
	if d.Day != nil {
		day = *d.Day
	}
	t := time.Date(*d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func toFuzzyDate(t *time.Time) *fuzzyDate {
	if t == nil {
		return &fuzzyDate{}
	}
	y, m, d := t.Date()
	month := int(m)
	return &fuzzyDate{Year: &y, Month: &month, Day: &d}
}

type anilistEntry struct {
	ID              int        `json:"id"`
	Status          string     `json:"status"`
	Progress        int        `json:"progress"`
	ProgressVolumes *int       `json:"progressVolumes"`
	Score           float64    `json:"score"`
	StartedAt       *fuzzyDate `json:"startedAt"`
	CompletedAt     *fuzzyDate `json:"completedAt"`
}

type anilistMedia struct {
	ID    int `json:"id"`
	Title struct {
		UserPreferred string `json:"userPreferred"`
	} `json:"title"`
	Chapters       *int          `json:"chapters"`
	Volumes        *int          `json:"volumes"`
	MediaListEntry *anilistEntry `json:"mediaListEntry"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (a *AniList) query(ctx context.Context, query string, vars map[string]any, out any) (data.Outcome, error) {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	body := map[string]any{"query": query, "variables": vars}
	outcome, err := a.api.Post(ctx, "", body, &resp)
	if err != nil {
		return outcome, err
	}
	if len(resp.Errors) > 0 {
		first := resp.Errors[0]
		outcome = data.OutcomeBadRequest
		if first.Status != 0 {
			outcome = utils.ClassifyStatus(first.Status)
		}
		return outcome, &data.OutcomeError{Outcome: outcome, Err: errors.New(first.Message)}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return data.OutcomeFail, fmt.Errorf("decode anilist response: %w", err)
		}
	}
	return outcome, nil
}

func (a *AniList) Fetch(ctx context.Context, key data.MediaKey) (*data.Snapshot, error) {
	if key.ID <= 0 {
		return nil, &data.OutcomeError{Outcome: data.OutcomeBadRequest, Err: fmt.Errorf("anilist needs a numeric id, got %q", key)}
	}
	s := &data.Snapshot{Service: data.Anilist, Key: key}
	if !a.api.HasToken() {
		return s, nil
	}
	s.LoggedIn = true

	var res struct {
		Media anilistMedia `json:"Media"`
	}
	if _, err := a.query(ctx, anilistFetchQuery, map[string]any{"id": key.ID}, &res); err != nil {
		return nil, fmt.Errorf("anilist fetch %d: %w", key.ID, err)
	}

	media := res.Media
	s.Name = media.Title.UserPreferred
	if media.Chapters != nil || media.Volumes != nil {
		s.MaxProgress = &data.Progress{Volume: media.Volumes}
		if media.Chapters != nil {
			s.MaxProgress.Chapter = float64(*media.Chapters)
		}
	}

	entry := media.MediaListEntry
	if entry == nil {
		return s, nil
	}
	s.InList = true
	s.RemoteID = strconv.Itoa(entry.ID)
	s.Status = parseAniListStatus(entry.Status)
	s.Progress = data.Progress{Chapter: float64(entry.Progress)}
	if entry.ProgressVolumes != nil && *entry.ProgressVolumes > 0 {
		s.Progress.Volume = entry.ProgressVolumes
	}
	s.Score = int(math.Round(entry.Score))
	s.Start = entry.StartedAt.time()
	s.End = entry.CompletedAt.time()
	return s, nil
}

func (a *AniList) Persist(ctx context.Context, s *data.Snapshot) (data.Outcome, error) {
	if !a.api.HasToken() {
		return data.OutcomeMissingToken, nil
	}
	vars := map[string]any{
		"mediaId":     s.Key.ID,
		"status":      anilistStatuses[s.Status],
		"progress":    int(math.Floor(s.Progress.Chapter)),
		"scoreRaw":    s.Score,
		"startedAt":   toFuzzyDate(s.Start),
		"completedAt": toFuzzyDate(s.End),
	}
	if s.Progress.Volume != nil {
		vars["progressVolumes"] = *s.Progress.Volume
	}

	var res struct {
		SaveMediaListEntry struct {
			ID int `json:"id"`
		} `json:"SaveMediaListEntry"`
	}
	outcome, err := a.query(ctx, anilistSaveMutation, vars, &res)
	if err != nil {
		return outcome, fmt.Errorf("anilist save %d: %w", s.Key.ID, err)
	}

	outcome = data.OutcomeSuccess
	if !s.InList {
		outcome = data.OutcomeCreated
	}
	s.InList = true
	s.RemoteID = strconv.Itoa(res.SaveMediaListEntry.ID)
	return outcome, nil
}

func (a *AniList) Delete(ctx context.Context, s *data.Snapshot) (data.Outcome, error) {
	if !a.api.HasToken() {
		return data.OutcomeMissingToken, nil
	}
	if s.RemoteID == "" {
		s.InList = false
		return data.OutcomeDeleted, nil
	}
	id, err := strconv.Atoi(s.RemoteID)
	if err != nil {
		return data.OutcomeBadRequest, fmt.Errorf("anilist entry id %q: %w", s.RemoteID, err)
	}

	var res struct {
		DeleteMediaListEntry struct {
			Deleted bool `json:"deleted"`
		} `json:"DeleteMediaListEntry"`
	}
	outcome, err := a.query(ctx, anilistDeleteMutation, map[string]any{"id": id}, &res)
	if err != nil {
		return outcome, fmt.Errorf("anilist delete %d: %w", id, err)
	}
	if !res.DeleteMediaListEntry.Deleted {
		return data.OutcomeFail, fmt.Errorf("anilist delete %d: entry not deleted", id)
	}
	s.InList = false
	s.RemoteID = ""
	return data.OutcomeDeleted, nil
}

func parseAniListStatus(s string) data.Status {
	switch s {
	case "CURRENT":
		return data.StatusReading
	case "COMPLETED":
		return data.StatusCompleted
	case "PAUSED":
		return data.StatusPaused
	case "PLANNING":
		return data.StatusPlanToRead
	case "DROPPED":
		return data.StatusDropped
	case "REPEATING":
		return data.StatusRereading
	default:
		return data.StatusNone
	}
}
