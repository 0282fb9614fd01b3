package orderbox

import "testing"

func drained(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return false
	default:
		return true
	}
}

func TestHubPublishScopedToTables(t *testing.T) {
	hub := NewHub()
	cart := hub.Subscribe(TableCart)
	defer cart.Close()

	hub.Publish(TableProducts)
	if !drained(cart.Signals()) {
		t.Fatalf("expected no signal for unrelated table")
	}

	hub.Publish(TableCart)
	select {
	case <-cart.Signals():
	default:
		t.Fatalf("expected signal for own table")
	}
}

func TestHubPublishMatchesAnyTable(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(TableProducts, TableVariations)
	defer sub.Close()

	hub.Publish(TableVariations, TableCart)
	select {
	case <-sub.Signals():
	default:
		t.Fatalf("expected signal when any watched table is published")
	}
}

func TestHubCoalescesSignals(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(TablePendingOrders)
	defer sub.Close()

	hub.Publish(TablePendingOrders)
	hub.Publish(TablePendingOrders)
	hub.Publish(TablePendingOrders)

	<-sub.Signals()
	if !drained(sub.Signals()) {
		t.Fatalf("expected repeated publishes to coalesce into one signal")
	}
}

func TestSubscriptionCloseStopsSignals(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(TableCart)

	sub.Close()
	sub.Close()

	hub.Publish(TableCart)
	if !drained(sub.Signals()) {
		t.Fatalf("expected no signal after close")
	}
}
