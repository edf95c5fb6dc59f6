// Package feed aggregates subscription uploads into a single timeline.
// Channels are fetched concurrently under a bounded semaphore; partial
// results with per-channel error capture beat an all-or-nothing
// refresh.
package feed
