// Package feed keeps a bounded, most-recent-first record of lifecycle
// transitions and operator actions. Entries live only for the process
// lifetime.
package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wherecode/command-console/internal/hierarchy"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 12

// Tone classifies an entry for operator display.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// ToneForStatus maps a command status to its display tone. The mapping is
// total: unknown statuses are neutral.
func ToneForStatus(status hierarchy.CommandStatus) Tone {
	switch status {
	case hierarchy.CommandSuccess:
		return ToneSuccess
	case hierarchy.CommandWaitingApproval:
		return ToneWarning
	case hierarchy.CommandFailed, hierarchy.CommandCanceled:
		return ToneDanger
	default:
		return ToneNeutral
	}
}

// Entry is one feed item.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tone      Tone      `json:"tone"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is a fixed-capacity, newest-first event log. Safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewLog creates a log holding at most capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
	}
}

// Push prepends an entry, truncating the oldest beyond capacity, and returns
// the stored entry.
func (l *Log) Push(title, body string, tone Tone) Entry {
	entry := Entry{
		ID:        newEntryID(),
		Title:     title,
		Body:      body,
		Tone:      tone,
		CreatedAt: time.Now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return entry
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the current number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Capacity returns the configured bound.
func (l *Log) Capacity() int {
	return l.capacity
}

// newEntryID builds an id unique within the log's bounded horizon:
// millisecond timestamp plus a random suffix.
func newEntryID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
