// Package database provides the PostgreSQL connection pool used by the
// candle store.
package database
