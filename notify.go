package orderbox

import "sync"

// Table names shared by the storage backends and their observers.
// Notification granularity is the table, not the row: a one-line cart edit
// redelivers the whole cart. At catalog scale (hundreds of rows) the
// recompute is cheaper than diff bookkeeping.
const (
	TableProducts      = "products"
	TableVariations    = "product_variations"
	TableCart          = "draft_cart"
	TablePendingOrders = "pending_orders"
)

// Hub fans table-level commit notifications out to live views. Storage
// backends publish the set of tables a transaction touched, after commit
// only; subscribers re-run their queries on receipt.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewHub returns an empty notification hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Publish signals every subscription watching any of the given tables.
func (h *Hub) Publish(tables ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.matches(tables) {
			sub.signal()
		}
	}
}

// Subscribe registers interest in the given tables.
func (h *Hub) Subscribe(tables ...string) *Subscription {
	sub := &Subscription{
		hub:    h,
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Subscription delivers coalesced change signals for a set of tables.
// The channel has capacity one, so a recomputation in flight absorbs
// subsequent commits instead of queuing a signal per write: the contract
// is at least one fresh recompute after the last write, not one recompute
// per write.
type Subscription struct {
	hub    *Hub
	tables map[string]struct{}
	ch     chan struct{}
	once   sync.Once
}

func (s *Subscription) matches(tables []string) bool {
	for _, table := range tables {
		if _, ok := s.tables[table]; ok {
			return true
		}
	}

	return false
}

func (s *Subscription) signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Signals returns the coalesced change channel.
func (s *Subscription) Signals() <-chan struct{} {
	return s.ch
}

// Close removes the subscription from its hub. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}
