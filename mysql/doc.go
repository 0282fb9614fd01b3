// Package mysql implements the on-device storage backend: the product and
// variation catalog, the draft cart and the pending-order queue, all in one
// MySQL database.
//
// Writes follow a strict pattern: mutate inside a transaction, commit, then
// publish the touched tables on the shared notification hub. Readers
// therefore only ever observe committed snapshots, and a failed bulk
// refresh rolls back to the previous complete catalog.
//
// The schema is managed as explicit versioned migrations, see Migrate.
package mysql
