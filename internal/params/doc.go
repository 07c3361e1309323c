// Package params models the per-video parameter document. Recognized fields
// are typed; everything else rides in per-node overflow maps and survives a
// serialization round trip untouched.
package params
