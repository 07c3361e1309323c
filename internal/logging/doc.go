// Package logging centralizes slog construction so every component logs with
// the same handlers and attribute conventions.
package logging
