package persist

import "sync"

// InMemory is an Engine backed by a plain map. It is durable for the lifetime
// of the process only; a restart loses everything. Intended for tests and
// local development.
type InMemory struct {
	mutex sync.RWMutex
	store map[string][]byte
}

func MakeInMemory() *InMemory {
	return &InMemory{store: make(map[string][]byte)}
}

func (e *InMemory) Persist(id string, state []byte) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	cp := make([]byte, len(state))
	copy(cp, state)
	e.store[id] = cp
	return nil
}

func (e *InMemory) Read(id string) ([]byte, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	state, ok := e.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return state, nil
}

func (e *InMemory) ReadAll() ([][]byte, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	all := make([][]byte, 0, len(e.store))
	for _, state := range e.store {
		all = append(all, state)
	}
	return all, nil
}

func (e *InMemory) Expunge(id string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	delete(e.store, id)
	return nil
}
