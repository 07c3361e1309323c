// Command montage is the CLI entry point: it runs the daemon (serve) and
// talks to a running daemon for job submission and inspection.
package main
