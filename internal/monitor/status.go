package monitor

import "sync/atomic"

// StatusBoard publishes Status values from the goroutine that owns the
// Monitor to concurrent readers such as the HTTP API.
type StatusBoard struct {
	current atomic.Pointer[Status]
}

// Publish replaces the visible status.
func (b *StatusBoard) Publish(s Status) {
	b.current.Store(&s)
}

// Current returns the last published status, or the zero Status.
func (b *StatusBoard) Current() Status {
	if s := b.current.Load(); s != nil {
		return *s
	}
	return Status{State: Normal.String()}
}
