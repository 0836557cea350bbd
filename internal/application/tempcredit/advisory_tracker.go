package tempcredit

import (
	"sync"
	"time"
)

// AdvisoryTracker remembers the newest advisory sequence per open document so
// that results of older, slower evaluations can be flagged as superseded.
type AdvisoryTracker struct {
	mu      sync.Mutex
	entries map[string]trackerEntry
	ttl     time.Duration
	now     func() time.Time
	lastGC  time.Time
}

type trackerEntry struct {
	seq  uint64
	seen time.Time
}

// NewAdvisoryTracker creates a tracker whose entries expire after ttl
func NewAdvisoryTracker(ttl time.Duration) *AdvisoryTracker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AdvisoryTracker{
		entries: make(map[string]trackerEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Observe records seq for the document and reports whether it is the newest
// seen so far. An empty key is never tracked.
func (t *AdvisoryTracker) Observe(key string, seq uint64) bool {
	if key == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.gcLocked(now)

	e, ok := t.entries[key]
	if ok && seq < e.seq {
		return false
	}
	t.entries[key] = trackerEntry{seq: seq, seen: now}
	return true
}

// IsLatest reports whether seq is still the newest sequence of the document
func (t *AdvisoryTracker) IsLatest(key string, seq uint64) bool {
	if key == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	return !ok || seq >= e.seq
}

// Len returns the number of tracked documents
func (t *AdvisoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *AdvisoryTracker) gcLocked(now time.Time) {
	if now.Sub(t.lastGC) < t.ttl/2 {
		return
	}
	t.lastGC = now
	for k, e := range t.entries {
		if now.Sub(e.seen) > t.ttl {
			delete(t.entries, k)
		}
	}
}
