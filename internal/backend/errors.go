package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Sentinel markers for failure classification. Wrap builds errors tagged
// with one of these so the orchestrator can route on errors.Is checks.
var (
	// ErrTransient marks retryable conditions: timeouts, connection
	// resets, 5xx responses, rate limiting.
	ErrTransient = errors.New("transient failure")

	// ErrPermanent marks definitive conditions where fallback cannot
	// help: removed content, access restrictions.
	ErrPermanent = errors.New("permanent failure")

	// ErrNotFound marks content that does not exist on the provider.
	// NotFound is always permanent.
	ErrNotFound = errors.New("not found")

	// ErrParse marks structurally unexpected payloads. Adapters return
	// this instead of propagating a partially-populated object.
	ErrParse = errors.New("malformed payload")

	// ErrRateLimit marks 429 responses. Rate limiting is transient but
	// callers may want to distinguish it for backoff purposes.
	ErrRateLimit = errors.New("rate limited")
)

// Class is the coarse failure category the orchestrator routes on.
type Class string

const (
	ClassTransient Class = "transient"
	ClassPermanent Class = "permanent"
)

// Wrap tags err with marker and an operation detail, preserving both for
// errors.Is/As inspection.
func Wrap(marker error, operation string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	operation = strings.TrimSpace(operation)
	if err != nil {
		if operation != "" {
			return fmt.Errorf("%w: %s: %w", marker, operation, err)
		}
		return fmt.Errorf("%w: %w", marker, err)
	}
	if operation != "" {
		return fmt.Errorf("%w: %s", marker, operation)
	}
	return marker
}

// StatusError reports an HTTP response outside the success range.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Code)
}

// FromStatus maps an HTTP status code to a tagged error. 404 and 410 are
// permanent not-found; 401/403 are permanent; 429 is rate limiting; the
// 5xx range is transient.
func FromStatus(endpoint string, code int) error {
	statusErr := &StatusError{Endpoint: endpoint, Code: code}
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return Wrap(ErrNotFound, "", statusErr)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Wrap(ErrPermanent, "", statusErr)
	case code == http.StatusTooManyRequests:
		return Wrap(ErrRateLimit, "", statusErr)
	case code >= 500:
		return Wrap(ErrTransient, "", statusErr)
	default:
		return Wrap(ErrPermanent, "", statusErr)
	}
}

// Classify buckets an arbitrary backend error into transient or
// permanent. Unknown errors default to transient: network-layer failures
// arrive in many shapes and retrying is the safe default.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassTransient
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermanent):
		return ClassPermanent
	case errors.Is(err, ErrParse):
		// A malformed payload from one instance may be fine on another.
		return ClassTransient
	case errors.Is(err, ErrRateLimit), errors.Is(err, ErrTransient):
		return ClassTransient
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	return ClassTransient
}

// IsPermanent reports whether fallback would be pointless for err.
func IsPermanent(err error) bool {
	return Classify(err) == ClassPermanent
}
