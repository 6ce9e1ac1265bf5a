// Package sqlstore persists principals through bun repositories, with an
// optional read-through cache layer. Postgres and SQLite are covered by
// the drivers the dialects expect.
package sqlstore
