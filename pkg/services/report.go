package services

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kerbaras/mangasync/pkg/data"
)

// SyncReport collects one outcome per service. Entries are written as soon
// as each service finishes and are safe to record concurrently.
type SyncReport struct {
	RunID string
	Title data.MediaKey

	mu       sync.Mutex
	outcomes map[data.ServiceKey]data.Outcome
	errs     map[data.ServiceKey]error
}

func NewSyncReport(title data.MediaKey) *SyncReport {
	return &SyncReport{
		RunID:    uuid.NewString(),
		Title:    title,
		outcomes: make(map[data.ServiceKey]data.Outcome),
		errs:     make(map[data.ServiceKey]error),
	}
}

// Set records the outcome of a service, replacing any previous entry.
func (r *SyncReport) Set(service data.ServiceKey, outcome data.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[service] = outcome
	if err != nil {
		r.errs[service] = err
	} else {
		delete(r.errs, service)
	}
}

func (r *SyncReport) Outcome(service data.ServiceKey) (data.Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[service]
	return o, ok
}

func (r *SyncReport) Err(service data.ServiceKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs[service]
}

// Services returns the reported services, sorted.
func (r *SyncReport) Services() []data.ServiceKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]data.ServiceKey, 0, len(r.outcomes))
	for k := range r.outcomes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r *SyncReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

func (r *SyncReport) filter(keep func(data.Outcome) bool) []data.ServiceKey {
	var out []data.ServiceKey
	for _, k := range r.Services() {
		o, _ := r.Outcome(k)
		if keep(o) {
			out = append(out, k)
		}
	}
	return out
}

// Updated lists the services whose request succeeded.
func (r *SyncReport) Updated() []data.ServiceKey {
	return r.filter(data.Outcome.OK)
}

// Failed lists the services that did not succeed, MissingToken included.
func (r *SyncReport) Failed() []data.ServiceKey {
	return r.filter(func(o data.Outcome) bool { return !o.OK() })
}

// MissingToken lists the services that need the user to log in.
func (r *SyncReport) MissingToken() []data.ServiceKey {
	return r.filter(func(o data.Outcome) bool { return o == data.OutcomeMissingToken })
}

// AllFailed is true when there is at least one entry and none succeeded.
func (r *SyncReport) AllFailed() bool {
	return r.Len() > 0 && len(r.Updated()) == 0
}

// Partial is true when some services succeeded and others did not.
func (r *SyncReport) Partial() bool {
	return len(r.Updated()) > 0 && len(r.Failed()) > 0
}

// Merge copies other's entries into r.
func (r *SyncReport) Merge(other *SyncReport) {
	for _, k := range other.Services() {
		o, _ := other.Outcome(k)
		r.Set(k, o, other.Err(k))
	}
}

func (r *SyncReport) String() string {
	services := r.Services()
	if len(services) == 0 {
		return "up to date"
	}
	parts := make([]string, len(services))
	for i, k := range services {
		o, _ := r.Outcome(k)
		parts[i] = fmt.Sprintf("%s=%s", k, o)
	}
	return strings.Join(parts, " ")
}
