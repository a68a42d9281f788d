// Package store persists completed footprint candles to PostgreSQL, keyed
// by (instrument, bucket timestamp) with upsert semantics, and loads them
// back at startup to rebuild in-memory state. A persist worker decouples
// saving from the ingest path: the engine enqueues sealed candles and the
// worker retries failed saves independently.
package store
