// Package model defines the shared domain types for the footprint engine:
// raw feed ticks, classified trades, footprint candles with their per-price
// bid/ask volume levels, and the snapshot forms sent to viewers. It also
// holds the two pure quantization helpers (price-to-tick-grid rounding and
// timestamp-to-bucket flooring) so every package rounds the same way.
package model
