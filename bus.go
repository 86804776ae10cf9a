package rewire

import (
	"runtime/debug"
	"sync"
)

// Callback is an observer attached to an envelope's notification bus.
// Observers receive no payload; they read status and value back through the
// envelope or a controller.
type Callback func()

// Subscription is an opaque handle for detaching a single observer.
// Multiple subscriptions from the same observer are independent.
type Subscription struct {
	id  uint64
	bus *notificationBus
}

// Cancel detaches the subscription. It is a no-op if already removed.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.unsubscribe(s)
}

type observerEntry struct {
	id uint64
	fn Callback
}

// notificationBus holds one envelope's observers in subscription order.
// Delivery snapshots the observer list before iterating, so callbacks that
// subscribe or unsubscribe mid-pass never affect the current pass.
type notificationBus struct {
	mu        sync.Mutex
	observers []observerEntry
	nextID    uint64

	// report receives observer panics; delivery continues regardless.
	report func(*ObserverError)
}

func newNotificationBus(report func(*ObserverError)) *notificationBus {
	return &notificationBus{report: report}
}

func (b *notificationBus) subscribe(fn Callback) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.observers = append(b.observers, observerEntry{id: b.nextID, fn: fn})
	return &Subscription{id: b.nextID, bus: b}
}

func (b *notificationBus) unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.observers {
		if entry.id == sub.id {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return
		}
	}
}

func (b *notificationBus) notifyAll() {
	b.mu.Lock()
	snapshot := make([]observerEntry, len(b.observers))
	copy(snapshot, b.observers)
	b.mu.Unlock()

	for _, entry := range snapshot {
		b.invoke(entry.fn)
	}
}

func (b *notificationBus) invoke(fn Callback) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			if b.report != nil {
				b.report(&ObserverError{Recovered: r, StackTrace: stack})
			}
		}
	}()

	fn()
}

func (b *notificationBus) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}
