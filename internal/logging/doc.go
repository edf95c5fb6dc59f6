// Package logging assembles the structured slog loggers used across
// the application. It owns the console and JSON handlers and the level
// plumbing so every component emits log lines with the same shape.
package logging
