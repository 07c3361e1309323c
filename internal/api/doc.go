// Package api defines the transport DTOs shared by the HTTP server and the
// CLI client, plus read-only services that adapt stored jobs into them.
package api
