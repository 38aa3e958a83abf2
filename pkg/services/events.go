package services

import "github.com/kerbaras/mangasync/pkg/data"

type EventKind int

const (
	EventFetching EventKind = iota
	EventFetched
	EventSyncing
	EventSynced
)

func (k EventKind) String() string {
	switch k {
	case EventFetching:
		return "fetching"
	case EventFetched:
		return "fetched"
	case EventSyncing:
		return "syncing"
	case EventSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// SyncEvent reports the progress of one service during a sync. Outcome and
// Err are only meaningful on EventFetched and EventSynced.
type SyncEvent struct {
	Title   data.MediaKey
	Service data.ServiceKey
	Kind    EventKind
	Outcome data.Outcome
	Err     error
}
