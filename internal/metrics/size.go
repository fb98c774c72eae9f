// Package metrics measures tool payloads for logs and telemetry without
// recording their content.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// Size describes a text payload.
type Size struct {
	Bytes int
	Runes int
	Lines int
}

// Measure returns the size of s. An empty string has zero lines; otherwise
// lines is one plus the number of '\n'.
func Measure(s string) Size {
	sz := Size{Bytes: len(s), Runes: utf8.RuneCountInString(s)}
	if s != "" {
		sz.Lines = 1 + strings.Count(s, "\n")
	}
	return sz
}

// Fields renders sz as telemetry/log fields named prefix+"bytes" etc.
func (sz Size) Fields(prefix string) map[string]any {
	return map[string]any{
		prefix + "bytes": sz.Bytes,
		prefix + "runes": sz.Runes,
		prefix + "lines": sz.Lines,
	}
}
