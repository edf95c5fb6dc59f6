// Package innertube implements the primary backend adapter against
// YouTube's unauthenticated internal web API. Requests mimic a generic
// browser session; no account or credentials are involved. The adapter
// tolerates surface drift by validating only the fields it maps and
// rejecting structurally unexpected payloads as parse errors.
package innertube
