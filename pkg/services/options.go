package services

import "github.com/kerbaras/mangasync/pkg/data"

// Options is the explicit configuration handed to every Orchestrator.
type Options struct {
	// Capacity bounds the chapter ledger of the titles created by the controller.
	Capacity int
	// AutoSync pushes to every connected service even when it looks up to date.
	AutoSync bool
	// Priority lists the services to sync, highest priority first.
	Priority []data.ServiceKey
	// Concurrency caps in-flight requests per phase. 0 means unbounded.
	Concurrency int
}

func DefaultOptions() Options {
	return Options{Capacity: data.DefaultChaptersSaved}
}
