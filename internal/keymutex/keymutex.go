// Package keymutex serializes mutations per key so operations on distinct
// calls or prompt lineages proceed in parallel while operations on the same
// key never interleave.
package keymutex

import "sync"

// KeyMutex hands out one mutex per key on demand.
//
// Mutexes are retained for the life of the process; the key space here (call
// ids, state+language lineage keys) stays small enough that reclaiming them
// is not worth the unlock races it invites.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key. It panics if the key was never locked,
// mirroring sync.Mutex semantics.
func (k *KeyMutex) Unlock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	k.mu.Unlock()
	if !ok {
		panic("keymutex: unlock of unknown key " + key)
	}
	m.Unlock()
}

func (k *KeyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
