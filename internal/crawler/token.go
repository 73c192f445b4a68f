package crawler

import (
	"sync"
	"sync/atomic"
)

// Token is a process-wide cancellation flag shared by every domain crawl.
//
// A Token starts active and moves to stopped exactly once. Crawlers only
// read it; the signal handler (or a test) is the only writer.
// The zero value is not usable; create tokens with NewToken.
type Token struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewToken returns an active token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Stop moves the token to the stopped state.
// It reports whether this call performed the transition; later calls are
// no-ops and return false.
func (t *Token) Stop() bool {
	stoppedNow := false
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.done)
		stoppedNow = true
	})
	return stoppedNow
}

// Stopped reports whether Stop has been called.
func (t *Token) Stopped() bool {
	return t.stopped.Load()
}

// Done returns a channel that is closed when the token is stopped.
func (t *Token) Done() <-chan struct{} {
	return t.done
}
