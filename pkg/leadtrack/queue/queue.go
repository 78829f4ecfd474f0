// Package queue implements the append-only event queue shared between the
// dispatch layer and the tag-manager runtime.
//
// Entries are only ever appended. Nothing in this module removes or reorders
// them, because the external consumer reads the sequence in insertion order.
package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one value pushed onto a Queue.
type Entry struct {
	// Seq is the 1-based insertion position.
	Seq int `json:"seq"`

	// ID uniquely identifies the entry.
	ID uuid.UUID `json:"id"`

	// PushedAt is when the entry was appended, in UTC.
	PushedAt time.Time `json:"pushed_at"`

	// Value is the pushed payload.
	Value any `json:"value"`
}

// Queue is an ordered, append-only sequence safe for concurrent use.
type Queue struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{now: time.Now}
}

// NewWithClock creates an empty queue that stamps entries using now.
func NewWithClock(now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{now: now}
}

// Push appends value and returns the stored entry.
func (q *Queue) Push(value any) Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := Entry{
		Seq:      len(q.entries) + 1,
		ID:       uuid.New(),
		PushedAt: q.now().UTC(),
		Value:    value,
	}
	q.entries = append(q.entries, e)
	return e
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Snapshot returns a deep copy of the entries in insertion order. Nothing
// in the result aliases the queue, so callers may modify it freely.
func (q *Queue) Snapshot() []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]Entry, len(q.entries))
	for i, e := range q.entries {
		e.Value = Clone(e.Value)
		out[i] = e
	}
	return out
}

// Values returns deep copies of the pushed values in insertion order.
func (q *Queue) Values() []any {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]any, len(q.entries))
	for i, e := range q.entries {
		out[i] = Clone(e.Value)
	}
	return out
}
