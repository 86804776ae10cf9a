package rewire

import (
	"testing"
)

func TestBus_NotifyInSubscriptionOrder(t *testing.T) {
	bus := newNotificationBus(nil)

	var order []int
	bus.subscribe(func() { order = append(order, 1) })
	bus.subscribe(func() { order = append(order, 2) })
	bus.subscribe(func() { order = append(order, 3) })

	bus.notifyAll()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected delivery in subscription order, got %v", order)
	}
}

func TestBus_UnsubscribeBeforeNotify(t *testing.T) {
	bus := newNotificationBus(nil)

	called := false
	sub := bus.subscribe(func() { called = true })
	bus.unsubscribe(sub)

	bus.notifyAll()

	if called {
		t.Error("Expected zero notifications after immediate unsubscribe")
	}
}

func TestBus_UnsubscribeIdempotent(t *testing.T) {
	bus := newNotificationBus(nil)

	sub := bus.subscribe(func() {})
	bus.unsubscribe(sub)
	bus.unsubscribe(sub)
	sub.Cancel()

	if bus.size() != 0 {
		t.Errorf("Expected empty bus, got %d observers", bus.size())
	}
}

func TestBus_IndependentSubscriptionsFromSameObserver(t *testing.T) {
	bus := newNotificationBus(nil)

	count := 0
	fn := func() { count++ }
	first := bus.subscribe(fn)
	bus.subscribe(fn)

	bus.unsubscribe(first)
	bus.notifyAll()

	if count != 1 {
		t.Errorf("Expected the second subscription to survive, got %d calls", count)
	}
}

func TestBus_SubscribeDuringNotifyDoesNotJoinCurrentPass(t *testing.T) {
	bus := newNotificationBus(nil)

	lateCalls := 0
	bus.subscribe(func() {
		bus.subscribe(func() { lateCalls++ })
	})

	bus.notifyAll()
	if lateCalls != 0 {
		t.Errorf("Expected late subscriber to miss the current pass, got %d calls", lateCalls)
	}

	bus.notifyAll()
	if lateCalls != 1 {
		t.Errorf("Expected late subscriber in the next pass, got %d calls", lateCalls)
	}
}

func TestBus_UnsubscribeDuringNotifyDoesNotAffectCurrentPass(t *testing.T) {
	bus := newNotificationBus(nil)

	secondCalls := 0
	var second *Subscription
	bus.subscribe(func() {
		bus.unsubscribe(second)
	})
	second = bus.subscribe(func() { secondCalls++ })

	bus.notifyAll()
	if secondCalls != 1 {
		t.Errorf("Expected snapshot to deliver to removed observer once, got %d", secondCalls)
	}

	bus.notifyAll()
	if secondCalls != 1 {
		t.Errorf("Expected removed observer out of later passes, got %d", secondCalls)
	}
}

func TestBus_ObserverPanicIsolated(t *testing.T) {
	var reported []*ObserverError
	bus := newNotificationBus(func(err *ObserverError) {
		reported = append(reported, err)
	})

	delivered := 0
	bus.subscribe(func() { panic("observer failure") })
	bus.subscribe(func() { delivered++ })

	bus.notifyAll()

	if delivered != 1 {
		t.Errorf("Expected delivery to continue past a panicking observer, got %d", delivered)
	}
	if len(reported) != 1 {
		t.Fatalf("Expected one reported observer error, got %d", len(reported))
	}
	if reported[0].Recovered != "observer failure" {
		t.Errorf("Expected recovered panic value, got %v", reported[0].Recovered)
	}
	if len(reported[0].StackTrace) == 0 {
		t.Error("Expected captured stack trace")
	}
}
