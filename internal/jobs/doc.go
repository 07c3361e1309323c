// Package jobs holds the job registry: process-lifetime records tracking each
// submitted video-production run from queued through its terminal state.
package jobs
