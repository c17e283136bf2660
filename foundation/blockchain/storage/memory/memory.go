// Package memory implements the ability to save and load the network state
// in memory.
package memory

import (
	"sync"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/storage"
)

// Memory represents the storage implementation for keeping the network
// state in memory. This implements the storage.Storage interface.
type Memory struct {
	mu       sync.RWMutex
	snapshot *storage.Snapshot
	saves    int
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Save keeps the snapshot in memory, replacing any previous one.
func (m *Memory) Save(snapshot storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = &snapshot
	m.saves++

	return nil
}

// Load returns the last snapshot saved.
func (m *Memory) Load() (storage.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot == nil {
		return storage.Snapshot{}, storage.ErrNotFound
	}

	return *m.snapshot, nil
}

// Saves returns the number of times Save has been called.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}
