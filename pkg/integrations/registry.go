package integrations

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kerbaras/mangasync/pkg/data"
)

// Registry maps service keys to their adapters.
type Registry struct {
	mu       sync.RWMutex
	services map[data.ServiceKey]Service
}

func NewRegistry(services ...Service) *Registry {
	r := &Registry{services: make(map[data.ServiceKey]Service)}
	for _, s := range services {
		r.Register(s)
	}
	return r
}

// Register adds a service. Registering the same key twice panics.
func (r *Registry) Register(s Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s == nil {
		panic("integrations: Register service is nil")
	}
	if _, exists := r.services[s.Key()]; exists {
		panic(fmt.Sprintf("integrations: Register called twice for service %s", s.Key()))
	}
	r.services[s.Key()] = s
}

func (r *Registry) Get(key data.ServiceKey) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[key]
	return s, ok
}

// Keys returns the registered keys, sorted.
func (r *Registry) Keys() []data.ServiceKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]data.ServiceKey, 0, len(r.services))
	for k := range r.services {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Ordered returns the registered services following priority. Keys of
// priority that are not registered are skipped; registered services missing
// from priority are left out.
func (r *Registry) Ordered(priority []data.ServiceKey) []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Service, 0, len(priority))
	seen := make(map[data.ServiceKey]bool, len(priority))
	for _, k := range priority {
		if s, ok := r.services[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}
