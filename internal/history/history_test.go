package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeepsOrder(t *testing.T) {
	h := New()
	h.Append(context.Background(), "ls")
	h.Append(context.Background(), "what time is it")

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ls", entries[0].Command)
	assert.Equal(t, "what time is it", entries[1].Command)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestEntriesReturnsCopy(t *testing.T) {
	h := New()
	h.Append(context.Background(), "pwd")

	entries := h.Entries()
	entries[0].Command = "changed"
	assert.Equal(t, "pwd", h.Entries()[0].Command)
}

func TestConcurrentAppend(t *testing.T) {
	h := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append(context.Background(), fmt.Sprintf("cmd %d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, h.Len())
	seen := map[string]bool{}
	for _, e := range h.Entries() {
		seen[e.Command] = true
	}
	assert.Len(t, seen, 50)
}

type memStore struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memStore) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	return m.entries, nil
}

func (m *memStore) Close() error { return nil }

func TestAppendMirrorsToStore(t *testing.T) {
	store := &memStore{}
	h := New(WithStore(store))

	h.Append(context.Background(), "date")
	require.Len(t, store.entries, 1)
	assert.Equal(t, "date", store.entries[0].Command)
}

func TestStoreFailureDoesNotLoseEntry(t *testing.T) {
	h := New(WithStore(&memStore{err: errors.New("disk full")}))

	h.Append(context.Background(), "date")
	assert.Equal(t, 1, h.Len())
}
