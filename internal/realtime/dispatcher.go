package realtime

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Handler receives events of one [Kind].
type Handler func(Event)

// Subscriber registers handlers for inbound events.
type Subscriber interface {
	Subscribe(kind Kind, fn Handler) *Subscription
}

// Subscription is a scoped handle for a registered [Handler].
type Subscription struct {
	kind     Kind
	fn       Handler
	owner    *Dispatcher
	released atomic.Bool
}

// Kind returns the event kind the subscription listens to.
func (s *Subscription) Kind() Kind { return s.kind }

// Release unregisters the handler. Calling it more than once is a no-op.
func (s *Subscription) Release() {
	if s == nil || s.released.Swap(true) {
		return
	}
	s.owner.remove(s)
}

// Released reports whether Release has been called.
func (s *Subscription) Released() bool {
	return s.released.Load()
}

// Dispatcher fans events out to subscriptions in registration order.
type Dispatcher struct {
	mu   sync.Mutex
	subs map[Kind][]*Subscription
}

var _ Subscriber = (*Dispatcher)(nil)

// NewDispatcher creates an empty [Dispatcher].
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: map[Kind][]*Subscription{}}
}

// Subscribe registers fn for kind and returns its handle.
func (d *Dispatcher) Subscribe(kind Kind, fn Handler) *Subscription {
	sub := &Subscription{kind: kind, fn: fn, owner: d}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs == nil {
		d.subs = map[Kind][]*Subscription{}
	}
	d.subs[kind] = append(d.subs[kind], sub)
	return sub
}

// Dispatch delivers ev to every live subscription for its kind, synchronously.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev == nil {
		return
	}

	d.mu.Lock()
	targets := slices.Clone(d.subs[ev.Kind()])
	d.mu.Unlock()

	for _, sub := range targets {
		if sub.released.Load() {
			continue
		}
		sub.fn(ev)
	}
}

// Count returns the number of live subscriptions for kind.
func (d *Dispatcher) Count(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs[kind])
}

// Reset releases every subscription.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	all := d.subs
	d.subs = map[Kind][]*Subscription{}
	d.mu.Unlock()

	for _, list := range all {
		for _, sub := range list {
			sub.released.Store(true)
		}
	}
}

func (d *Dispatcher) remove(sub *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[sub.kind] = slices.DeleteFunc(d.subs[sub.kind], func(s *Subscription) bool { return s == sub })
}
