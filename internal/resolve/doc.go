// Package resolve orchestrates metadata resolution across the primary
// backend and ranked fallback instances. It owns the fallback policy,
// the attempt trail reported on failure, and a TTL cache so repeated
// lookups within a window cost no network traffic.
package resolve
