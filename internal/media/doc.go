// Package media defines the canonical metadata model shared by all
// backends. Every adapter normalizes its provider's payloads into these
// types; nothing downstream ever sees a raw backend response.
package media
