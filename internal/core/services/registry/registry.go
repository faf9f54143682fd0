package registry

import (
	"fmt"
	"sort"
	"sync"

	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

// IWorkerRegistry maps worker names to their connectivity information
type IWorkerRegistry interface {
	// Register inserts or replaces the entry for info.Name
	Register(info domain.ConnectivityInfo)

	// Lookup returns the current entry for name or errs.ErrUnknownWorker
	Lookup(name string) (domain.ConnectivityInfo, error)

	// List returns a snapshot of all entries sorted by name
	List() []domain.ConnectivityInfo

	Len() int
}

var _ IWorkerRegistry = &WorkerRegistry{}

// WorkerRegistry is the in-memory worker registry. Entries live for the
// lifetime of the process; re-registration overwrites.
type WorkerRegistry struct {
	mu      sync.RWMutex
	workers map[string]domain.ConnectivityInfo
}

// NewWorkerRegistry creates an empty registry
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		workers: make(map[string]domain.ConnectivityInfo),
	}
}

func (r *WorkerRegistry) Register(info domain.ConnectivityInfo) {
	r.mu.Lock()
	r.workers[info.Name] = info
	r.mu.Unlock()
}

func (r *WorkerRegistry) Lookup(name string) (domain.ConnectivityInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.workers[name]
	if !exists {
		return domain.ConnectivityInfo{}, fmt.Errorf("%w: %s", errs.ErrUnknownWorker, name)
	}
	return info, nil
}

func (r *WorkerRegistry) List() []domain.ConnectivityInfo {
	r.mu.RLock()
	workers := make([]domain.ConnectivityInfo, 0, len(r.workers))
	for _, info := range r.workers {
		workers = append(workers, info)
	}
	r.mu.RUnlock()

	sort.Slice(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })
	return workers
}

func (r *WorkerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
