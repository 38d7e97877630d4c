package resilience

import (
	"sync"
	"time"
)

// DefaultErrorLogSize is the number of entries kept when no size is given.
const DefaultErrorLogSize = 100

// Entry is one terminal failure.
type Entry struct {
	Time       time.Time `json:"time"`
	Op         string    `json:"op"`
	Kind       Kind      `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Attempts   int       `json:"attempts"`
	Message    string    `json:"message"`
}

// ErrorLog is a bounded, oldest-evicted record of terminal failures.
// It is diagnostic only and never influences control flow.
type ErrorLog struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	size    int
	sink    func(Entry)
}

// NewErrorLog creates a log holding at most capacity entries.
func NewErrorLog(capacity int) *ErrorLog {
	if capacity <= 0 {
		capacity = DefaultErrorLogSize
	}
	return &ErrorLog{entries: make([]Entry, capacity)}
}

// SetSink registers a callback invoked for every recorded entry,
// e.g. to persist entries across process runs.
func (l *ErrorLog) SetSink(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = fn
}

// Record appends e, evicting the oldest entry when full.
func (l *ErrorLog) Record(e Entry) {
	l.mu.Lock()
	capacity := len(l.entries)
	if l.size < capacity {
		l.entries[(l.start+l.size)%capacity] = e
		l.size++
	} else {
		l.entries[l.start] = e
		l.start = (l.start + 1) % capacity
	}
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		sink(e)
	}
}

// Entries returns a copy of the log, oldest first.
func (l *ErrorLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.entries[(l.start+i)%len(l.entries)]
	}
	return out
}

// Len returns the number of entries held.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Cap returns the maximum number of entries held.
func (l *ErrorLog) Cap() int {
	return len(l.entries)
}

// Clear drops all entries.
func (l *ErrorLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = 0
	l.size = 0
}
