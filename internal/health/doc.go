// Package health tracks per-instance reliability for the fallback
// backend. Each instance carries an exponentially weighted success
// score and a circuit breaker; the monitor ranks eligible instances so
// the resolver tries the most reliable ones first.
package health
