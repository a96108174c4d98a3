package identity

import (
	"context"
	"sync"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// ErrNotFound keeps lookups consistent across store implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "identity not found")

// Registry is interface-driven to keep the pipeline testable and to allow
// swapping in-memory or external enrollment sources without rewiring
// decision code.
type Registry interface {
	Get(ctx context.Context, id domain.PersonID) (Identity, error)
	Put(ctx context.Context, ident Identity) error
}

// InMemoryRegistry favors clarity over performance; enrollment data is small
// and read-mostly.
type InMemoryRegistry struct {
	mu   sync.RWMutex
	byID map[domain.PersonID]Identity
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{byID: make(map[domain.PersonID]Identity)}
}

func (r *InMemoryRegistry) Get(_ context.Context, id domain.PersonID) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ident, ok := r.byID[id]; ok {
		return ident, nil
	}
	return Identity{}, ErrNotFound
}

func (r *InMemoryRegistry) Put(_ context.Context, ident Identity) error {
	if ident.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "identity requires an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ident.ID] = ident
	return nil
}
