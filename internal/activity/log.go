package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Buffer sizes.
const (
	// maxEntries caps the in-memory history.
	maxEntries = 1000
	// subscriberBuffer is the per-subscriber channel depth. A subscriber
	// this far behind starts losing events.
	subscriberBuffer = 64
)

// Log is the in-memory activity history with live fan-out.
type Log struct {
	mu      sync.RWMutex
	entries []Entry

	subMu       sync.Mutex
	subscribers map[chan Entry]struct{}

	now func() time.Time
}

// NewLog creates an empty activity log.
func NewLog() *Log {
	return &Log{
		entries:     make([]Entry, 0, maxEntries),
		subscribers: make(map[chan Entry]struct{}),
		now:         time.Now,
	}
}

// Record assigns the entry an ID and timestamp, appends it to the history
// and fans it out to subscribers.
//
// When the history is full the oldest entry is evicted. Fan-out is
// non-blocking: a subscriber whose buffer is full misses this entry,
// other subscribers and the caller are unaffected.
func (l *Log) Record(e Entry) Entry {
	e.ID = uuid.New().String()
	e.Timestamp = l.now().UTC()

	l.mu.Lock()
	if len(l.entries) >= maxEntries {
		l.entries = append(l.entries[1:], e)
	} else {
		l.entries = append(l.entries, e)
	}
	l.mu.Unlock()

	l.subMu.Lock()
	for ch := range l.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
	l.subMu.Unlock()

	return e
}

// Query returns one page of history, newest first.
//
// Offset counts from the newest entry; limit caps the page size. Requests
// past the end return an empty page with the true total.
func (l *Log) Query(limit, offset int) Page {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	total := len(l.entries)
	page := Page{Total: total, Entries: []Entry{}}
	if offset >= total {
		return page
	}

	// entries is oldest-first; walk it backwards to page newest-first.
	start := total - 1 - offset
	end := start - limit + 1
	if end < 0 {
		end = 0
	}
	for i := start; i >= end; i-- {
		page.Entries = append(page.Entries, l.entries[i])
	}
	return page
}

// Subscribe registers a listener for entries recorded from now on.
//
// The returned channel is buffered; the caller must drain it and must
// call Unsubscribe when done.
func (l *Log) Subscribe() chan Entry {
	ch := make(chan Entry, subscriberBuffer)
	l.subMu.Lock()
	l.subscribers[ch] = struct{}{}
	l.subMu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (l *Log) Unsubscribe(ch chan Entry) {
	l.subMu.Lock()
	if _, ok := l.subscribers[ch]; ok {
		delete(l.subscribers, ch)
		close(ch)
	}
	l.subMu.Unlock()
}

// SubscriberCount reports the number of live subscribers.
func (l *Log) SubscriberCount() int {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	return len(l.subscribers)
}
