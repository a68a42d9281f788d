// Package server exposes the viewer-facing HTTP endpoints: completed
// candle history, get/set of the runtime aggregation settings, a health
// check, and the live update stream as Server-Sent Events.
package server
