package mysql

import (
	"context"

	"github.com/afterten/orderbox"
)

// Live views over the store. Each view recomputes its full result set
// after any committed write to the tables it watches and delivers it
// latest-wins. The store logger receives recompute failures unless the
// caller overrides it with a watch option.

// LiveVisibleProducts streams the visible product list, sorted by name.
func (s *Store) LiveVisibleProducts(ctx context.Context, opts ...orderbox.WatchOption) *orderbox.View[orderbox.Product] {
	return watch(ctx, s, []string{orderbox.TableProducts}, s.VisibleProducts, opts)
}

// LiveVisibleVariations streams the visible variations of one product.
func (s *Store) LiveVisibleVariations(ctx context.Context, productID string, opts ...orderbox.WatchOption) *orderbox.View[orderbox.Variation] {
	query := func(ctx context.Context) ([]orderbox.Variation, error) {
		return s.VisibleProductVariations(ctx, productID)
	}

	return watch(ctx, s, []string{orderbox.TableVariations}, query, opts)
}

// LiveAllVariations streams every visible variation in the catalog.
func (s *Store) LiveAllVariations(ctx context.Context, opts ...orderbox.WatchOption) *orderbox.View[orderbox.Variation] {
	return watch(ctx, s, []string{orderbox.TableVariations}, s.AllVisibleVariations, opts)
}

// LiveCartLines streams the draft cart, sorted by line name.
func (s *Store) LiveCartLines(ctx context.Context, opts ...orderbox.WatchOption) *orderbox.View[orderbox.CartLine] {
	return watch(ctx, s, []string{orderbox.TableCart}, s.CartLines, opts)
}

// LivePendingOrders streams the queued orders, oldest first.
func (s *Store) LivePendingOrders(ctx context.Context, opts ...orderbox.WatchOption) *orderbox.View[orderbox.PendingOrder] {
	return watch(ctx, s, []string{orderbox.TablePendingOrders}, s.PendingOrders, opts)
}

// Methods cannot be generic, so the shared wiring lives in a function.
func watch[T any](ctx context.Context, s *Store, tables []string, query orderbox.Query[T], opts []orderbox.WatchOption) *orderbox.View[T] {
	merged := append([]orderbox.WatchOption{orderbox.WithWatchLogger(s.cfg.Logger)}, opts...)

	return orderbox.Watch(ctx, s.cfg.Hub, tables, query, merged...)
}
