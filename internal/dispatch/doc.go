// Package dispatch fans live candle snapshots out to connected viewers.
// Each viewer owns a bounded queue; publishing never blocks on a slow or
// disconnected viewer.
package dispatch
