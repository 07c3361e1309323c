// Package daemon runs the long-lived montage service: it holds the
// single-instance lock, hosts the job HTTP API, and wires the workflow
// manager to it.
package daemon
