package cache

import (
	"sync"

	"jobcost/storage"
)

// MemoryBackend keeps snapshots in process memory. Used when no cache file
// is configured and in tests.
type MemoryBackend struct {
	mu        sync.Mutex
	snapshots map[string]storage.Snapshot
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{snapshots: make(map[string]storage.Snapshot)}
}

func (m *MemoryBackend) PutSnapshot(snapshot storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot.Payload = append([]byte(nil), snapshot.Payload...)
	m.snapshots[snapshot.Key] = snapshot
	return nil
}

func (m *MemoryBackend) GetSnapshot(key string) (storage.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.snapshots[key]
	if !ok {
		return storage.Snapshot{}, false, nil
	}
	snapshot.Payload = append([]byte(nil), snapshot.Payload...)
	return snapshot, true, nil
}

func (m *MemoryBackend) DeleteSnapshot(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.snapshots[key]
	delete(m.snapshots, key)
	return ok, nil
}
