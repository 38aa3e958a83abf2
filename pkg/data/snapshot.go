package data

// Snapshot is a title as currently stored on one remote service. It is built
// fresh on every fetch and only ever folded into a Title, never persisted.
type Snapshot struct {
	ListState

	Service  ServiceKey
	Missing  FieldSet
	InList   bool
	LoggedIn bool

	MaxProgress *Progress
	// RemoteID is the service's own id for the list entry, needed to delete it.
	RemoteID string
	// Key is the key the snapshot was fetched with. An adapter that had to
	// resolve a slug sets it to the completed key.
	Key MediaKey

	// FetchErr is set on placeholders for fetches that failed.
	FetchErr error
}

// FailedSnapshot is the placeholder stored when a fetch fails, so the
// orchestrator can treat errored services like any other snapshot.
func FailedSnapshot(service ServiceKey, key MediaKey, err error) *Snapshot {
	return &Snapshot{Service: service, Key: key, FetchErr: err}
}

func (s *Snapshot) State() *ListState {
	return &s.ListState
}

func (s *Snapshot) MissingFields() FieldSet {
	return s.Missing
}

// Failed reports a placeholder for a failed fetch.
func (s *Snapshot) Failed() bool {
	return s.FetchErr != nil
}

// FetchOutcome is OutcomeSuccess for real snapshots.
func (s *Snapshot) FetchOutcome() Outcome {
	return OutcomeOf(s.FetchErr)
}

// Import copies the title's state into the snapshot before a push, leaving
// the fields the service cannot store untouched.
func (s *Snapshot) Import(t *Title) {
	s.Name = t.Name
	s.Status = t.Status
	s.Progress.Chapter = t.Progress.Chapter
	s.Progress.Oneshot = t.Progress.Oneshot
	if !s.Missing.Has(FieldVolume) {
		s.Progress.Volume = nil
		if t.Progress.Volume != nil {
			s.Progress.Volume = VolumeOf(*t.Progress.Volume)
		}
	}
	if !s.Missing.Has(FieldScore) {
		s.Score = t.Score
	}
	if !s.Missing.Has(FieldStart) {
		s.Start = cloneTime(t.Start)
	}
	if !s.Missing.Has(FieldEnd) {
		s.End = cloneTime(t.End)
	}
}
