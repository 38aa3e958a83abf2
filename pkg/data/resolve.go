package data

import (
	"math"
	"time"
)

// ListState holds the fields every list holder shares: the local Title and
// every remote Snapshot.
type ListState struct {
	Name     string     `json:"name,omitempty"`
	Status   Status     `json:"status"`
	Progress Progress   `json:"progress"`
	Score    int        `json:"score"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}

// Stateful is anything conflict resolution can compare.
type Stateful interface {
	State() *ListState
	MissingFields() FieldSet
}

// IsMoreRecent answers "should b be replaced by a". A single dominating
// dimension is enough, so it is not an order: both IsMoreRecent(a, b) and
// IsMoreRecent(b, a) can hold at the same time.
func IsMoreRecent(a, b Stateful) bool {
	sa, sb := a.State(), b.State()
	missing := a.MissingFields().Union(b.MissingFields())

	if sa.Progress.Chapter > sb.Progress.Chapter {
		return true
	}
	if !missing.Has(FieldVolume) && sa.Progress.Volume != nil &&
		(sb.Progress.Volume == nil || *sa.Progress.Volume > *sb.Progress.Volume) {
		return true
	}
	if !missing.Has(FieldScore) && sa.Score > 0 && sb.Score > 0 && sa.Score != sb.Score {
		return true
	}
	if !missing.Has(FieldStart) && sa.Start != nil && (sb.Start == nil || dateBefore(*sa.Start, *sb.Start)) {
		return true
	}
	if !missing.Has(FieldEnd) && sa.End != nil && (sb.End == nil || dateBefore(*sa.End, *sb.End)) {
		return true
	}
	return false
}

// IsSyncedWith compares every field both sides can store. Chapters are
// compared on their integral part and dates on their calendar day.
func IsSyncedWith(a, b Stateful) bool {
	sa, sb := a.State(), b.State()
	missing := a.MissingFields().Union(b.MissingFields())

	if sa.Status != sb.Status {
		return false
	}
	if math.Floor(sa.Progress.Chapter) != math.Floor(sb.Progress.Chapter) {
		return false
	}
	if !missing.Has(FieldVolume) && !sameVolume(sa.Progress.Volume, sb.Progress.Volume) {
		return false
	}
	if !missing.Has(FieldScore) && sa.Score != sb.Score {
		return false
	}
	if !missing.Has(FieldStart) && !sameDate(sa.Start, sb.Start) {
		return false
	}
	if !missing.Has(FieldEnd) && !sameDate(sa.End, sb.End) {
		return false
	}
	return true
}

// Merge widens target with whatever source knows better. Fields source cannot
// store are left alone, and nothing target has is ever cleared.
func Merge(target, source Stateful) {
	ts, ss := target.State(), source.State()
	missing := source.MissingFields()

	if ss.Status != StatusNone {
		ts.Status = ss.Status
	}
	if ss.Progress.Chapter > ts.Progress.Chapter {
		ts.Progress.Chapter = ss.Progress.Chapter
		ts.Progress.Oneshot = ss.Progress.Oneshot
	}
	if !missing.Has(FieldVolume) && ss.Progress.Volume != nil &&
		(ts.Progress.Volume == nil || *ss.Progress.Volume > *ts.Progress.Volume) {
		ts.Progress.Volume = VolumeOf(*ss.Progress.Volume)
	}
	if !missing.Has(FieldScore) && ss.Score > 0 {
		ts.Score = ss.Score
	}
	if !missing.Has(FieldStart) && ss.Start != nil && (ts.Start == nil || dateBefore(*ss.Start, *ts.Start)) {
		ts.Start = DateOf(*ss.Start)
	}
	if !missing.Has(FieldEnd) && ss.End != nil && (ts.End == nil || dateBefore(*ts.End, *ss.End)) {
		ts.End = DateOf(*ss.End)
	}
	if ts.Name == "" && ss.Name != "" {
		ts.Name = ss.Name
	}
}

func sameVolume(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dateBefore(a, b time.Time) bool {
	return Today(a).Before(Today(b))
}
