package balancer

import (
	"sync"

	"gitlab.com/appserver.net/internal/static/errs"
)

// IBalancer hands out worker names for job assignment
type IBalancer interface {
	// WorkerAdded appends name to the rotation unless it is already present
	WorkerAdded(name string) bool

	// Next returns the next name in rotation or errs.ErrEmptyRotation
	Next() (string, error)

	// Names returns the rotation order and the index Next will return
	Names() ([]string, int)
}

var _ IBalancer = &RoundRobin{}

// RoundRobin assigns workers in strict registration order, wrapping after
// the last one. The cursor advances on every successful Next whether or not
// the caller manages to use the worker.
type RoundRobin struct {
	mu      sync.Mutex
	names   []string
	members map[string]struct{}
	cursor  int
}

// NewRoundRobin creates an empty rotation
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{
		members: make(map[string]struct{}),
	}
}

func (b *RoundRobin) WorkerAdded(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.members[name]; exists {
		return false
	}
	b.members[name] = struct{}{}
	b.names = append(b.names, name)
	return true
}

func (b *RoundRobin) Next() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.names) == 0 {
		return "", errs.ErrEmptyRotation
	}

	// The cursor is only wrapped lazily, so a name appended right after the
	// last one handed out is the one that follows it.
	if b.cursor >= len(b.names) {
		b.cursor = 0
	}
	name := b.names[b.cursor]
	b.cursor++
	return name, nil
}

func (b *RoundRobin) Names() ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, len(b.names))
	copy(names, b.names)

	next := b.cursor
	if next >= len(names) {
		next = 0
	}
	return names, next
}
