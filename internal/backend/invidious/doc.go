// Package invidious implements the fallback backend adapter against the
// public Invidious REST API. One Client binds to one instance; the
// orchestrator holds a client per configured instance and chooses among
// them by health rank.
package invidious
