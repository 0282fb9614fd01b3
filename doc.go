// Package orderbox is the local-first data layer of an outlet ordering
// client: a durable outbox for order submissions plus reactive caches for
// the product catalog and the in-progress draft cart.
//
// Typical flow:
//  1. A catalog sync job bulk-replaces products and variations through a
//     storage backend; UI screens subscribe to live views of the visible set.
//  2. Checkout enqueues a pending order; the committed row, not the network
//     call, is the durable record of the submission.
//  3. A Scheduler polls the queue for due entries, submits each through a
//     caller-supplied Submitter, and advances backoff state on failure.
//     Deleting the row is the only "delivered" signal.
//
// For the MySQL storage backend (the on-device store), see the mysql
// package. The postgres package provides the same durable queue for
// server-side relay deployments.
package orderbox
