package data

import (
	"sync"
	"time"
)

// Title is the local, authoritative state of one series. It is owned by the
// caller that loaded it: a Title must have a single writer at a time. The
// ledger and volume tables are additionally guarded by an internal mutex so
// the reader paths (CLI, monitor) can inspect them while a sync runs.
type Title struct {
	ListState

	// Key is the primary catalog key and never changes.
	Key      MediaKey
	InList   bool
	LoggedIn bool

	MaxProgress *Progress
	Services    map[ServiceKey]MediaKey
	// Forced services keep their key even when id discovery finds another one.
	Forced map[ServiceKey]bool

	Chapters *ChapterLedger

	VolumeChapterCount  map[int]int
	VolumeChapterOffset map[int]int
	VolumeResetChapter  bool

	LastVisit      time.Time
	LastChapterID  string
	LastRead       time.Time
	HighestChapter float64

	// Mirrored is what the primary catalog last accepted.
	Mirrored MirrorState

	mu sync.Mutex
}

// MirrorState is the part of a title the primary catalog stores.
type MirrorState struct {
	Status Status `json:"status"`
	Score  int    `json:"score"`
}

// MirrorTarget is the state the primary catalog should hold.
func (t *Title) MirrorTarget() MirrorState {
	return MirrorState{Status: t.Status, Score: t.Score}
}

// NewTitle returns an empty title keeping at most capacity opened chapters.
func NewTitle(key MediaKey, capacity int) *Title {
	return &Title{
		Key:                 key,
		Services:            map[ServiceKey]MediaKey{},
		Forced:              map[ServiceKey]bool{},
		Chapters:            NewChapterLedger(capacity),
		VolumeChapterCount:  map[int]int{},
		VolumeChapterOffset: map[int]int{},
	}
}

func (t *Title) State() *ListState {
	return &t.ListState
}

// MissingFields is always empty: the local record stores everything.
func (t *Title) MissingFields() FieldSet {
	return 0
}

// ServiceKey returns the remote key known for a service.
func (t *Title) ServiceKey(service ServiceKey) (MediaKey, bool) {
	key, ok := t.Services[service]
	return key, ok && key.Valid()
}

// SetServiceKey records a key chosen by the user. A forced key is never
// replaced by DiscoverServiceKey.
func (t *Title) SetServiceKey(service ServiceKey, key MediaKey, forced bool) {
	if !key.Valid() {
		delete(t.Services, service)
		delete(t.Forced, service)
		return
	}
	t.Services[service] = key
	if forced {
		t.Forced[service] = true
	} else {
		delete(t.Forced, service)
	}
}

// DiscoverServiceKey records a key found by an adapter. It returns true when
// the stored key changed. A forced key only accepts completions of itself,
// such as a slug gaining its numeric id.
func (t *Title) DiscoverServiceKey(service ServiceKey, key MediaKey) bool {
	if !key.Valid() {
		return false
	}
	current, ok := t.Services[service]
	if ok && current == key {
		return false
	}
	if t.Forced[service] && !(current.Partial() && current.Slug == key.Slug) {
		return false
	}
	t.Services[service] = key
	return true
}

// SetProgress moves the reading position forward. It returns false when p is
// behind the current chapter. Reaching MaxProgress completes the title.
func (t *Title) SetProgress(p Progress, now time.Time) bool {
	if p.Chapter < t.Progress.Chapter {
		return false
	}
	if p.Volume == nil && t.Progress.Volume != nil {
		p.Volume = VolumeOf(*t.Progress.Volume)
	}
	t.Progress = NewProgress(p.Chapter, p.Volume, p.Oneshot)
	if p.Chapter > t.HighestChapter {
		t.HighestChapter = p.Chapter
	}

	switch t.Status {
	case StatusNone, StatusPlanToRead, StatusPaused:
		t.Status = StatusReading
	}
	if t.Start == nil {
		t.Start = DateOf(now)
	}
	if t.reachedEnd() && t.Status != StatusCompleted {
		t.Status = StatusCompleted
		if t.End == nil {
			t.End = DateOf(now)
		}
	}
	return true
}

func (t *Title) reachedEnd() bool {
	if t.MaxProgress == nil {
		return false
	}
	if t.Progress.Oneshot && t.MaxProgress.Oneshot {
		return true
	}
	return t.MaxProgress.Chapter > 0 && t.Progress.Chapter >= t.MaxProgress.Chapter
}

// SetScore clamps score to [0, 100].
func (t *Title) SetScore(score int) {
	t.Score = min(max(score, 0), 100)
}

// FoldMaxProgress keeps, per field, the smallest known series length.
// A zero chapter or a nil volume means "unknown" and never wins.
func (t *Title) FoldMaxProgress(p *Progress) {
	if p == nil || (p.Chapter <= 0 && p.Volume == nil && !p.Oneshot) {
		return
	}
	if t.MaxProgress == nil {
		copied := *p
		if p.Volume != nil {
			copied.Volume = VolumeOf(*p.Volume)
		}
		t.MaxProgress = &copied
		return
	}
	if p.Chapter > 0 && (t.MaxProgress.Chapter <= 0 || p.Chapter < t.MaxProgress.Chapter) {
		t.MaxProgress.Chapter = p.Chapter
	}
	if p.Volume != nil && (t.MaxProgress.Volume == nil || *p.Volume < *t.MaxProgress.Volume) {
		t.MaxProgress.Volume = VolumeOf(*p.Volume)
	}
}

// Visit records a page view of the title.
func (t *Title) Visit(now time.Time) {
	t.LastVisit = now
}

// SetLastRead records the catalog chapter the user last opened.
func (t *Title) SetLastRead(chapterID string, now time.Time) {
	t.LastChapterID = chapterID
	t.LastRead = now
}

// AddChapter marks c as opened.
func (t *Title) AddChapter(c float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Chapters.Add(c)
}

// RemoveChapter marks c as not opened.
func (t *Title) RemoveChapter(c float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Chapters.Remove(c)
}

// UpdateChapterList is used when the user jumps to a new latest chapter.
func (t *Title) UpdateChapterList(c float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Chapters.UpdateLatest(c)
}

// OpenedChapters returns the ledger content.
func (t *Title) OpenedChapters() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Chapters.Chapters()
}

// ApplyVolumes stores the renumbering table of a chapter list. Once a reset
// has been seen the title keeps renumbering for good.
func (t *Title) ApplyVolumes(entries []ChapterEntry) VolumeTable {
	table := DetectVolumes(entries)

	t.mu.Lock()
	defer t.mu.Unlock()
	if table.Reset {
		t.VolumeResetChapter = true
	}
	for v, c := range table.Count {
		t.VolumeChapterCount[v] = c
	}
	for _, e := range entries {
		if e.Volume == nil {
			continue
		}
		if o, ok := table.Offset[*e.Volume]; ok {
			t.VolumeChapterOffset[*e.Volume] = o
		} else {
			delete(t.VolumeChapterOffset, *e.Volume)
		}
	}
	for _, n := range t.volumeTable().Renumber(entries) {
		if n > t.HighestChapter {
			t.HighestChapter = n
		}
	}
	return t.volumeTable()
}

// ContinuousChapter converts a volume-local position using the stored tables.
func (t *Title) ContinuousChapter(p Progress) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volumeTable().Convert(p.Chapter, p.Volume)
}

func (t *Title) volumeTable() VolumeTable {
	return VolumeTable{
		Reset:  t.VolumeResetChapter,
		Count:  t.VolumeChapterCount,
		Offset: t.VolumeChapterOffset,
	}
}

// Reset clears the list state, as done when the title is deleted.
func (t *Title) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.InList = false
	t.Status = StatusNone
	t.Progress = Progress{Chapter: 0}
	t.Score = 0
	t.Start = nil
	t.End = nil
	t.Chapters.Clear()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
