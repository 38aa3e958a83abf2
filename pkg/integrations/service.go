package integrations

import (
	"context"

	"github.com/kerbaras/mangasync/pkg/data"
)

// Service is a remote reading list. Implementations translate between their
// own API and data.Snapshot.
//
// Fetch returns a snapshot with LoggedIn false, and no error, when the
// service has no credentials. A non-nil error means the fetch failed; it may
// carry a *data.OutcomeError.
type Service interface {
	Key() data.ServiceKey
	MissingFields() data.FieldSet
	Fetch(ctx context.Context, key data.MediaKey) (*data.Snapshot, error)
	// Persist creates or updates the list entry from s. On success the
	// snapshot reflects the stored entry (InList, RemoteID).
	Persist(ctx context.Context, s *data.Snapshot) (data.Outcome, error)
	// Delete removes the list entry of s.
	Delete(ctx context.Context, s *data.Snapshot) (data.Outcome, error)
}
