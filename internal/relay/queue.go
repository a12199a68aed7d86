package relay

import (
	"sync"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

// Queue is a fixed-capacity, append-only event buffer. When full, the
// oldest record is evicted. Positions form a logical index space that
// only grows: base is the logical index of the oldest retained record,
// and base+count is the index the next append will receive. A stale
// cursor below base is clamped forward; callers learn the floor from
// OldestIndex so lost records are detectable, not silent.
type Queue struct {
	mu    sync.Mutex
	buf   []*domain.Event
	head  int // offset of the oldest retained record in buf
	count int
	base  uint64
}

// NewQueue creates a Queue holding at most capacity records.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{buf: make([]*domain.Event, capacity)}
}

// Append inserts ev at the tail, evicting the head if the queue is
// full, and returns the assigned logical index. O(1).
func (q *Queue) Append(ev *domain.Event) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.base + uint64(q.count)
	if q.count == len(q.buf) {
		// Evict the oldest record.
		q.buf[q.head] = ev
		q.head = (q.head + 1) % len(q.buf)
		q.base++
		return idx
	}

	q.buf[(q.head+q.count)%len(q.buf)] = ev
	q.count++
	return idx
}

// Slice returns up to limit records whose logical index is >= since, in
// insertion order, plus the cursor to resume from and the total number
// of records ever appended. A since below the retained floor is clamped
// to the floor; a since at or past the tail yields an empty slice.
func (q *Queue) Slice(since uint64, limit int) ([]*domain.Event, uint64, uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := q.base + uint64(q.count)
	start := since
	if start < q.base {
		start = q.base
	}
	if start >= total {
		return nil, total, total
	}

	n := int(total - start)
	if limit >= 0 && n > limit {
		n = limit
	}

	out := make([]*domain.Event, n)
	offset := int(start - q.base)
	for i := range n {
		out[i] = q.buf[(q.head+offset+i)%len(q.buf)]
	}

	return out, start + uint64(n), total
}

// Clear empties the queue. Logical indices keep growing: the next
// append receives the index it would have had without the clear, so
// cursors held by pollers stay monotonic.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.base += uint64(q.count)
	q.count = 0
	q.head = 0
	for i := range q.buf {
		q.buf[i] = nil
	}
}

// Len returns the number of retained records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// OldestIndex returns the logical index of the oldest retained record.
func (q *Queue) OldestIndex() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.base
}

// CountByKind tallies the retained records by kind.
func (q *Queue) CountByKind() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[string]int)
	for i := range q.count {
		ev := q.buf[(q.head+i)%len(q.buf)]
		counts[string(ev.Kind)]++
	}
	return counts
}
