package journal

import (
	"context"
	"sync"
)

// DefaultCapacity bounds the in-memory journal.
const DefaultCapacity = 200

// Memory is a fixed-size ring of entries, used when no database is configured.
type Memory struct {
	mu    sync.Mutex
	buf   []Entry
	next  int
	count int
}

// NewMemory returns a ring holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{buf: make([]Entry, capacity)}
}

// Record appends e, evicting the oldest entry when full.
func (m *Memory) Record(_ context.Context, e Entry) error {
	e = prepare(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf[m.next] = e
	m.next = (m.next + 1) % len(m.buf)
	if m.count < len(m.buf) {
		m.count++
	}
	return nil
}

// Recent returns up to limit entries of userID, newest first.
func (m *Memory) Recent(_ context.Context, userID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, min(limit, m.count))
	for i := 1; i <= m.count && len(out) < limit; i++ {
		e := m.buf[(m.next-i+len(m.buf))%len(m.buf)]
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
