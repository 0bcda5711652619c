package actor

import "sync"

// pendingLimit caps the queue of messages held for an unbound address.
const pendingLimit = 64

// ExternalAddr is a handle to a destination that may not be known yet.
// Messages sent before Bind are queued and flushed in order once the
// destination is set. Unbind discards the destination but keeps the handle
// usable; later sends queue again. This is an ordering device only — it
// makes no delivery promise across a failed destination.
type ExternalAddr[T any] struct {
	mu      sync.Mutex
	dest    func(T)
	pending []T
}

func NewExternalAddr[T any]() *ExternalAddr[T] {
	return &ExternalAddr[T]{}
}

// Send delivers to the bound destination, or queues while unbound. It
// reports false when the pending queue overflowed and the message was
// dropped.
func (a *ExternalAddr[T]) Send(msg T) bool {
	a.mu.Lock()
	if a.dest == nil {
		if len(a.pending) >= pendingLimit {
			a.mu.Unlock()
			return false
		}
		a.pending = append(a.pending, msg)
		a.mu.Unlock()
		return true
	}
	dest := a.dest
	a.mu.Unlock()

	dest(msg)
	return true
}

// Bind sets the destination and drains the pending queue in FIFO order.
func (a *ExternalAddr[T]) Bind(dest func(T)) {
	a.mu.Lock()
	a.dest = dest
	queued := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, msg := range queued {
		dest(msg)
	}
}

// Unbind drops the destination without touching the handle itself.
func (a *ExternalAddr[T]) Unbind() {
	a.mu.Lock()
	a.dest = nil
	a.mu.Unlock()
}

// Bound reports whether a destination is currently set.
func (a *ExternalAddr[T]) Bound() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dest != nil
}
