package crawler

import (
	"github.com/antigloss/go/concurrent/container/queue"
)

// frontier is the FIFO queue of URLs waiting to be fetched for one domain.
//
// It remembers every URL it has ever accepted, so a URL is queued at most
// once per crawl even when many pages link to it. The seen set therefore
// covers both queued and already visited URLs.
type frontier struct {
	queue *queue.LockfreeQueue
	seen  map[string]struct{}
	size  int
}

func newFrontier() *frontier {
	return &frontier{
		queue: queue.NewLockfreeQueue(),
		seen:  make(map[string]struct{}),
	}
}

// push appends u to the tail and reports whether it was accepted.
func (f *frontier) push(u string) bool {
	if _, ok := f.seen[u]; ok {
		return false
	}
	f.seen[u] = struct{}{}
	f.queue.Push(u)
	f.size++
	return true
}

// pop removes and returns the head of the queue.
func (f *frontier) pop() (string, bool) {
	if f.size == 0 {
		return "", false
	}
	v := f.queue.Pop()
	if v == nil {
		return "", false
	}
	f.size--
	u, ok := v.(string)
	return u, ok
}

// markSeen records u without queueing it.
func (f *frontier) markSeen(u string) {
	f.seen[u] = struct{}{}
}

func (f *frontier) len() int {
	return f.size
}
