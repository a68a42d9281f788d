// Package engine is the aggregation core: it turns raw feed ticks into
// footprint candles.
//
// The Classifier derives aggressor side and lot size from consecutive
// cumulative-volume observations. The Engine assigns each classified trade
// to a fixed-duration time bucket, maintains OHLC and per-price bid/ask
// volume for the bucket's candle, seals a bucket when a trade opens a new
// one, and emits a live snapshot after every aggregated trade.
package engine
