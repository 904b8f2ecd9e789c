package logging

import (
	"slices"
	"sync"
	"time"
)

// LogEntry is one captured log record, as stored for replay over the API.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries in a fixed-size circular
// buffer. Safe for concurrent use.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{entries: make([]LogEntry, size)}
}

// Write stores an entry, evicting the oldest once the buffer is full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

// ReadAll returns the buffered entries oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		if rb.next == 0 {
			return nil
		}
		return slices.Clone(rb.entries[:rb.next])
	}

	// Wrapped: the oldest entry sits at the write cursor
	out := make([]LogEntry, 0, len(rb.entries))
	out = append(out, rb.entries[rb.next:]...)
	return append(out, rb.entries[:rb.next]...)
}

// Count returns how many entries are buffered.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}

// Capacity returns the fixed buffer size.
func (rb *RingBuffer) Capacity() int {
	return len(rb.entries)
}
