package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps object references in process. It backs local development
// when no object store is configured.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]struct{}
	deleted []string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, objects: make(map[string]struct{})}
}

func (m *Memory) GenerateUploadTarget(_ context.Context) (*UploadTarget, error) {
	ref := uuid.NewString()
	m.Put(ref)
	return &UploadTarget{
		Ref:       ref,
		UploadURL: m.baseURL + "/upload/" + ref,
		ExpiresAt: time.Now().Add(uploadTTL),
	}, nil
}

// Put registers ref as an uploaded object.
func (m *Memory) Put(ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ref] = struct{}{}
}

func (m *Memory) ResolveURL(_ context.Context, ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[ref]; !ok {
		return "", ErrObjectNotFound
	}
	return m.baseURL + "/objects/" + ref, nil
}

func (m *Memory) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

// Deleted lists every reference passed to Delete, in order.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
