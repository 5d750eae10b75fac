package vm

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// BackendFactory describes a function producing a fresh Backend instance. Integrations embedding a
// concrete interpreter register a factory for the virtual machine kind they implement; the fuzzing
// driver requests one backend instance per session.
type BackendFactory func() (Backend, error)

// backendFactories describes the registered backend factories, keyed by virtual machine kind.
var backendFactories = make(map[types.VMKind]BackendFactory)

// backendFactoriesLock provides thread synchronization for factory registration and lookup.
var backendFactoriesLock sync.Mutex

// RegisterBackendFactory registers a factory for the given virtual machine kind, replacing any factory
// previously registered for it.
func RegisterBackendFactory(kind types.VMKind, factory BackendFactory) {
	backendFactoriesLock.Lock()
	defer backendFactoriesLock.Unlock()
	backendFactories[kind] = factory
}

// NewRegisteredBackend produces a fresh Backend for the given virtual machine kind.
// Returns an error if no factory was registered for the kind.
func NewRegisteredBackend(kind types.VMKind) (Backend, error) {
	backendFactoriesLock.Lock()
	factory, ok := backendFactories[kind]
	backendFactoriesLock.Unlock()
	if !ok {
		return nil, errors.Errorf("no virtual machine back-end is registered for kind '%s'", kind)
	}
	return factory()
}
