package storage

import "sync"

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps values in process memory. State does not survive a
// restart; it is the right choice for tests and short-lived tools.
type MemoryStorage struct {
	values map[string][]byte
	lock   sync.RWMutex
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (ms *MemoryStorage) Get(key string) ([]byte, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	value, ok := ms.values[key]
	if !ok {
		return nil, KeyNotFoundErr
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (ms *MemoryStorage) Set(key string, value []byte) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	ms.values[key] = stored
	return nil
}

func (ms *MemoryStorage) Remove(key string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	delete(ms.values, key)
	return nil
}
