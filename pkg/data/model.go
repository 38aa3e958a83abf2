package data

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by the repository when no title is stored for a key.
var ErrNotFound = errors.New("title not found")

// ServiceKey identifies a remote list service.
type ServiceKey string

const (
	MangaDex     ServiceKey = "md"
	MyAnimeList  ServiceKey = "mal"
	Anilist      ServiceKey = "al"
	Kitsu        ServiceKey = "ku"
	MangaUpdates ServiceKey = "mu"
	AnimePlanet  ServiceKey = "ap"
)

// Status is a reading list status shared by every service.
type Status int

const (
	StatusNone Status = iota
	StatusReading
	StatusCompleted
	StatusPaused
	StatusPlanToRead
	StatusDropped
	StatusRereading
	StatusWontRead
)

var statusNames = []string{"none", "reading", "completed", "paused", "plan_to_read", "dropped", "rereading", "wont_read"}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return StatusNone, fmt.Errorf("unknown status %q", s)
}

// Progress is a reading position. A oneshot always sits at chapter 0.
type Progress struct {
	Chapter float64 `json:"chapter"`
	Volume  *int    `json:"volume,omitempty"`
	Oneshot bool    `json:"oneshot,omitempty"`
}

// NewProgress builds a Progress, forcing chapter 0 for oneshots.
func NewProgress(chapter float64, volume *int, oneshot bool) Progress {
	if oneshot || chapter < 0 {
		chapter = 0
	}
	return Progress{Chapter: chapter, Volume: volume, Oneshot: oneshot}
}

// VolumeOf returns a pointer usable as Progress.Volume.
func VolumeOf(v int) *int {
	return &v
}

func (p Progress) String() string {
	if p.Oneshot {
		return "oneshot"
	}
	if p.Volume != nil {
		return fmt.Sprintf("vol.%d ch.%s", *p.Volume, FormatChapter(p.Chapter))
	}
	return "ch." + FormatChapter(p.Chapter)
}

// FormatChapter prints 10 as "10" and 10.5 as "10.5".
func FormatChapter(c float64) string {
	if c == math.Trunc(c) {
		return fmt.Sprintf("%d", int64(c))
	}
	return fmt.Sprintf("%g", c)
}

// Field is an attribute a service may be unable to store.
type Field uint8

const (
	FieldVolume Field = 1 << iota
	FieldScore
	FieldStart
	FieldEnd
)

// FieldSet is a set of missing fields.
type FieldSet uint8

// Fields builds a FieldSet.
func Fields(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s |= FieldSet(f)
	}
	return s
}

func (s FieldSet) Has(f Field) bool {
	return s&FieldSet(f) != 0
}

// Union is used when comparing two holders: a field missing on either side is skipped.
func (s FieldSet) Union(o FieldSet) FieldSet {
	return s | o
}

// MediaKey identifies a title on one service. At least one of ID and Slug is set.
type MediaKey struct {
	ID   int    `json:"id,omitempty"`
	Slug string `json:"slug,omitempty"`
}

func (k MediaKey) Valid() bool {
	return k.ID > 0 || k.Slug != ""
}

// Partial reports a key that only carries a slug and still needs its numeric id.
func (k MediaKey) Partial() bool {
	return k.ID == 0 && k.Slug != ""
}

func (k MediaKey) String() string {
	switch {
	case k.ID > 0 && k.Slug != "":
		return fmt.Sprintf("%d/%s", k.ID, k.Slug)
	case k.ID > 0:
		return fmt.Sprintf("%d", k.ID)
	default:
		return k.Slug
	}
}

// Outcome is the result kind of a push, delete or failed fetch.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeCreated
	OutcomeDeleted
	OutcomeMissingToken
	OutcomeBadRequest
	OutcomeServerError
	OutcomeNotFound
	OutcomeFail
)

var outcomeNames = []string{"success", "created", "deleted", "missing_token", "bad_request", "server_error", "not_found", "fail"}

func (o Outcome) String() string {
	if int(o) < 0 || int(o) >= len(outcomeNames) {
		return "fail"
	}
	return outcomeNames[o]
}

// OK reports the outcomes that mean the remote now mirrors the title.
func (o Outcome) OK() bool {
	return o == OutcomeSuccess || o == OutcomeCreated || o == OutcomeDeleted
}

// OutcomeError carries an Outcome through an error return.
type OutcomeError struct {
	Outcome Outcome
	Err     error
}

func (e *OutcomeError) Error() string {
	if e.Err == nil {
		return e.Outcome.String()
	}
	return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
}

func (e *OutcomeError) Unwrap() error {
	return e.Err
}

// OutcomeOf classifies an adapter error. Errors without an Outcome are Fail.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var oe *OutcomeError
	if errors.As(err, &oe) {
		return oe.Outcome
	}
	return OutcomeFail
}

// Today truncates t to a calendar date in UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf returns a pointer to the date part of t.
func DateOf(t time.Time) *time.Time {
	d := Today(t)
	return &d
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseMediaKey reads back MediaKey.String.
func ParseMediaKey(s string) MediaKey {
	idPart, slug, hasSlug := strings.Cut(s, "/")
	id, err := strconv.Atoi(idPart)
	switch {
	case err == nil && hasSlug:
		return MediaKey{ID: id, Slug: slug}
	case err == nil && id > 0:
		return MediaKey{ID: id}
	default:
		return MediaKey{Slug: s}
	}
}
