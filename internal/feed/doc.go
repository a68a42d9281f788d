// Package feed connects to the upstream quote stream over WebSocket and
// turns its raw JSON events into canonical Ticks. The Manager owns the
// connect/subscribe/reconnect lifecycle so the aggregation core only ever
// sees a clean channel of ticks.
package feed
