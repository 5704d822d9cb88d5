package storage

import "sync"

// Memory keeps values in process memory. It backs --ephemeral runs and tests;
// ReadErr and WriteErr, when set, are returned by every Get and Set/Delete.
type Memory struct {
	Quota    int
	ReadErr  error
	WriteErr error

	mu     sync.Mutex
	values map[string][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	if m.ReadErr != nil {
		return nil, false, m.ReadErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	if err := checkQuota(m.Quota, key, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
