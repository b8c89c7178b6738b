package scancache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/db"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	ttls  map[string]time.Duration
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error

	deleted []string
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) Del(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

type mockRelease struct {
	url string
	ok  bool
}

func (m *mockRelease) Version() (string, bool) { return m.url, m.ok }

func newTestCache(t *testing.T) (*Cache, *mockKVStore, *mockRelease) {
	t.Helper()
	ms := &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
	rel := &mockRelease{url: "https://example.org/dataset-2021-03-04-aaa.zip", ok: true}
	return New(ms, rel, time.Hour, nil, zap.NewNop()), ms, rel
}
