package orderbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu    sync.Mutex
	items []string
	err   error
}

func (s *fakeSource) set(items ...string) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *fakeSource) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSource) query(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(s.items))
	copy(out, s.items)

	return out, nil
}

func waitUpdate(t *testing.T, view *View[string]) []string {
	t.Helper()
	select {
	case items, ok := <-view.Updates():
		if !ok {
			t.Fatalf("updates channel closed unexpectedly")
		}
		return items
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view update")
		return nil
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func TestViewEmitsInitialResult(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"espresso", "flat white"}}
	view := Watch(context.Background(), hub, []string{TableProducts}, source.query)
	defer view.Close()

	if got := waitUpdate(t, view); !equal(got, []string{"espresso", "flat white"}) {
		t.Fatalf("unexpected initial result: %v", got)
	}
}

func TestViewRecomputesOnPublish(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"espresso"}}
	view := Watch(context.Background(), hub, []string{TableProducts}, source.query)
	defer view.Close()

	waitUpdate(t, view)

	source.set("espresso", "mocha")
	hub.Publish(TableProducts)

	if got := waitUpdate(t, view); !equal(got, []string{"espresso", "mocha"}) {
		t.Fatalf("unexpected recomputed result: %v", got)
	}
}

func TestViewIgnoresUnrelatedTables(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"espresso"}}
	view := Watch(context.Background(), hub, []string{TableProducts}, source.query)
	defer view.Close()

	waitUpdate(t, view)

	source.set("stale")
	hub.Publish(TableCart)

	select {
	case items := <-view.Updates():
		t.Fatalf("unexpected emission for unrelated table: %v", items)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestViewLatestWins(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"v1"}}
	view := Watch(context.Background(), hub, []string{TableProducts}, source.query)
	defer view.Close()

	// Never consume the initial emission; pile newer sets behind it.
	source.set("v2")
	hub.Publish(TableProducts)
	source.set("v3")
	hub.Publish(TableProducts)

	deadline := time.After(time.Second)
	for {
		got := waitUpdate(t, view)
		if equal(got, []string{"v3"}) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("never observed newest set, last: %v", got)
		default:
		}
	}
}

func TestViewQueryErrorReported(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"espresso"}}

	errCh := make(chan error, 1)
	view := Watch(context.Background(), hub, []string{TableProducts}, source.query,
		WithWatchOnError(func(err error) {
			errCh <- err
		}))
	defer view.Close()

	waitUpdate(t, view)

	cause := errors.New("store closed")
	source.fail(cause)
	hub.Publish(TableProducts)

	select {
	case err := <-errCh:
		if !errors.Is(err, cause) {
			t.Fatalf("expected query error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for error callback")
	}
}

func TestViewCloseClosesUpdates(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"espresso"}}
	view := Watch(context.Background(), hub, []string{TableProducts}, source.query)

	waitUpdate(t, view)
	view.Close()

	select {
	case _, ok := <-view.Updates():
		if ok {
			t.Fatalf("expected closed updates channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for channel close")
	}
}

func TestViewContextCancelStops(t *testing.T) {
	hub := NewHub()
	source := &fakeSource{items: []string{"espresso"}}
	ctx, cancel := context.WithCancel(context.Background())
	view := Watch(ctx, hub, []string{TableProducts}, source.query)

	waitUpdate(t, view)
	cancel()

	select {
	case _, ok := <-view.Updates():
		if ok {
			t.Fatalf("expected closed updates channel after context cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for channel close")
	}
}
