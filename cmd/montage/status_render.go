package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"montage/internal/jobs"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// colorizeStatus wraps a job status in an ANSI color when the destination is
// a terminal.
func colorizeStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	var color string
	switch jobs.Status(status) {
	case jobs.StatusDone:
		color = ansiGreen
	case jobs.StatusFailed:
		color = ansiRed
	case jobs.StatusRunning:
		color = ansiBlue
	case jobs.StatusQueued:
		color = ansiYellow
	default:
		return status
	}
	return color + status + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
