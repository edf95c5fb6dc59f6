// Package backend defines the capability interface every metadata
// provider implements, plus the shared failure taxonomy used by the
// resolution orchestrator to decide between retry, fallback, and
// surfacing an error to the caller.
package backend
