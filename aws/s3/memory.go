package s3

import (
	"sort"
	"strings"
	"sync"
)

// NewMemoryClient returns an in-memory BasicClient. Used by tests and by CLI
// dry runs; it implements the same contract as the S3-backed client,
// including ErrKeyNotFound on missing keys.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string][]byte)}
}

type MemoryClient struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailKeys causes Put to fail for matching keys, so tests can exercise
	// partial write outcomes.
	FailKeys map[string]error
}

func (m *MemoryClient) List(key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0)
	for k := range m.objects {
		if strings.HasPrefix(k, key) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryClient) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryClient) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailKeys[key]; ok {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = cp
	return nil
}

func (m *MemoryClient) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}
