package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one raw command as received by the dispatcher
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
}

// NewEntry creates an entry stamped with the current time
func NewEntry(command string) Entry {
	return Entry{
		Timestamp: time.Now(),
		Command:   command,
	}
}

// Store persists entries beyond the process lifetime
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// Recent returns up to n entries, oldest first
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// History is the append-only, in-memory command history of one dispatcher.
// It grows for the lifetime of the process; an optional Store mirrors every
// entry with its own retention.
type History struct {
	mu      sync.Mutex
	entries []Entry
	store   Store
	logger  *zap.Logger
}

// Option configures a History
type Option func(*History)

// WithStore mirrors appended entries into s
func WithStore(s Store) Option {
	return func(h *History) {
		h.store = s
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates an empty history
func New(opts ...Option) *History {
	h := &History{
		entries: []Entry{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append records command. Persistence errors are logged, never returned.
func (h *History) Append(ctx context.Context, command string) {
	entry := NewEntry(command)

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()

	if h.store == nil {
		return
	}
	if err := h.store.Append(ctx, entry); err != nil {
		h.logger.Warn("failed to persist history entry", zap.Error(err))
	}
}

// Len returns the number of recorded commands
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of the recorded entries in order
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}
