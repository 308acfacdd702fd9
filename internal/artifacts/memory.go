package artifacts

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

const memoryScheme = "memory://artifacts/"

// MemoryStore is an in-process Store for tests and local runs without a bucket.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]memoryBlob

	// FailPut, FailGet and FailDelete force the next matching call to fail.
	FailPut    error
	FailGet    error
	FailDelete error
}

type memoryBlob struct {
	contentType string
	data        []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string]memoryBlob{}}
}

func (m *MemoryStore) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		err := m.FailPut
		m.FailPut = nil
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upload artifact")
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "artifact is empty")
	}
	url := memoryScheme + name
	m.blobs[url] = memoryBlob{contentType: contentType, data: append([]byte(nil), data...)}
	return url, nil
}

func (m *MemoryStore) Get(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		err := m.FailGet
		m.FailGet = nil
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "download artifact")
	}
	blob, ok := m.blobs[url]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStorage, "artifact missing from storage")
	}
	return append([]byte(nil), blob.data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		err := m.FailDelete
		m.FailDelete = nil
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete artifact")
	}
	delete(m.blobs, url)
	return nil
}

// Has reports whether url is currently stored.
func (m *MemoryStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[url]
	return ok
}

// Len returns the number of stored artifacts.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// ContentType returns the stored content type for url.
func (m *MemoryStore) ContentType(url string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[url].contentType
}

// Names lists object names, mainly for assertions on naming.
func (m *MemoryStore) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.blobs))
	for url := range m.blobs {
		out = append(out, strings.TrimPrefix(url, memoryScheme))
	}
	return out
}
