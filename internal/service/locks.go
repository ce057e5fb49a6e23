package service

import (
	"sync"
)

// HolderLockRegistry serializes mutating operations per holder.
// Activation, renewal and cancellation all run under the holder's lock
// so two concurrent attempts cannot create duplicate active parent
// memberships. Locks are never released from the map; the holder set
// of a single run is bounded.
type HolderLockRegistry struct {
	locks sync.Map // holderID -> *sync.Mutex
}

// NewHolderLockRegistry creates an empty registry
func NewHolderLockRegistry() *HolderLockRegistry {
	return &HolderLockRegistry{}
}

// Lock acquires the lock for the holder and returns the unlock func
func (r *HolderLockRegistry) Lock(holderID string) func() {
	actual, _ := r.locks.LoadOrStore(holderID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
