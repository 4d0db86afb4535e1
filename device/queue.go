package device

import (
	"sync"

	"github.com/ardnew/softp2io/pkg"
)

// Queue is a bounded, thread-safe FIFO of bytes. It carries sequential
// protocol bytes from a producer goroutine to the polling path.
type Queue struct {
	buf     []byte
	limit   int
	dropped int
	mutex   sync.Mutex
}

// NewQueue creates a queue holding at most limit bytes.
func NewQueue(limit int) *Queue {
	return &Queue{buf: make([]byte, 0, limit), limit: limit}
}

// Write appends as much of p as fits. Returns [pkg.ErrNoResources] if any
// bytes were dropped.
func (q *Queue) Write(p []byte) (int, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	n := min(len(p), q.limit-len(q.buf))
	q.buf = append(q.buf, p[:n]...)
	if n < len(p) {
		q.dropped += len(p) - n
		return n, pkg.ErrNoResources
	}
	return n, nil
}

// Read moves up to len(p) bytes into p. Returns 0 when empty.
func (q *Queue) Read(p []byte) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	n := copy(p, q.buf)
	q.buf = append(q.buf[:0], q.buf[n:]...)
	return n
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.buf)
}

// Dropped returns the number of bytes discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.dropped
}

// Reset discards all queued bytes.
func (q *Queue) Reset() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.buf = q.buf[:0]
}

// Latest holds the most recent report from a producer goroutine.
// Each Store replaces the previous value.
type Latest struct {
	data  []byte
	set   bool
	mutex sync.Mutex
}

// Store replaces the held report with a copy of p.
func (l *Latest) Store(p []byte) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.data = append(l.data[:0], p...)
	l.set = true
}

// Load copies the held report into p. Returns false if nothing was stored.
func (l *Latest) Load(p []byte) (int, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if !l.set {
		return 0, false
	}
	return copy(p, l.data), true
}
