package data

import (
	"math"
	"slices"

	"github.com/goccy/go-json"
)

// DefaultChaptersSaved is the ledger capacity when none is configured.
const DefaultChaptersSaved = 400

// ChapterLedger is the sorted, bounded set of chapters the user opened.
// When it grows past its capacity it keeps a window centered on the chapter
// that was just inserted instead of dropping the oldest entry.
type ChapterLedger struct {
	chapters []float64
	capacity int
}

// NewChapterLedger returns an empty ledger. A capacity <= 0 uses DefaultChaptersSaved.
func NewChapterLedger(capacity int) *ChapterLedger {
	if capacity <= 0 {
		capacity = DefaultChaptersSaved
	}
	return &ChapterLedger{capacity: capacity}
}

func (l *ChapterLedger) Capacity() int {
	return l.capacity
}

// SetCapacity changes the bound; it only takes effect on the next insertion.
func (l *ChapterLedger) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultChaptersSaved
	}
	l.capacity = capacity
}

func (l *ChapterLedger) Len() int {
	return len(l.chapters)
}

func (l *ChapterLedger) Full() bool {
	return len(l.chapters) >= l.capacity
}

// Chapters returns a copy of the ledger in ascending order.
func (l *ChapterLedger) Chapters() []float64 {
	return slices.Clone(l.chapters)
}

func (l *ChapterLedger) Contains(c float64) bool {
	_, found := slices.BinarySearch(l.chapters, c)
	return found
}

// Add inserts c. It returns false when c was already present.
func (l *ChapterLedger) Add(c float64) bool {
	i, found := slices.BinarySearch(l.chapters, c)
	if found {
		return false
	}
	l.chapters = slices.Insert(l.chapters, i, c)

	excess := len(l.chapters) - l.capacity
	if excess > 0 {
		// Entries before i go from the front, entries after i from the back.
		start := min(max(i-l.capacity/2, 0), excess)
		l.chapters = slices.Clone(l.chapters[start : start+l.capacity])
	}
	return true
}

// Remove deletes c. It returns false when c was not present.
func (l *ChapterLedger) Remove(c float64) bool {
	i, found := slices.BinarySearch(l.chapters, c)
	if !found {
		return false
	}
	l.chapters = slices.Delete(l.chapters, i, i+1)
	return true
}

// UpdateLatest makes c the newest opened chapter: everything above c is
// dropped, c is added, then every integral chapter below c down to 1 is
// filled in until the ledger is full.
func (l *ChapterLedger) UpdateLatest(c float64) {
	i, found := slices.BinarySearch(l.chapters, c)
	if found {
		i++
	}
	l.chapters = l.chapters[:i]
	l.Add(c)

	k := math.Floor(c)
	if k == c {
		k--
	}
	for ; k >= 1 && len(l.chapters) < l.capacity; k-- {
		l.Add(k)
	}
}

func (l *ChapterLedger) Clear() {
	l.chapters = nil
}

func (l *ChapterLedger) MarshalJSON() ([]byte, error) {
	if l.chapters == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.chapters)
}

func (l *ChapterLedger) UnmarshalJSON(b []byte) error {
	var chapters []float64
	if err := json.Unmarshal(b, &chapters); err != nil {
		return err
	}
	slices.Sort(chapters)
	l.chapters = slices.Compact(chapters)
	if l.capacity <= 0 {
		l.capacity = DefaultChaptersSaved
	}
	return nil
}
