// Package jobkey derives canonical job identifiers such as "2024-17" from
// project names and job key fields.
package jobkey

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`^\d{4}-\d+`)

// Resolve returns the job key at the start of raw, ignoring surrounding
// whitespace. Names that do not start with the pattern have no key and are
// dropped from reconciliation.
func Resolve(raw string) (string, bool) {
	key := pattern.FindString(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	return key, true
}

// ResolveFirst returns the key of the first candidate that resolves.
func ResolveFirst(candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		if key, ok := Resolve(candidate); ok {
			return key, true
		}
	}
	return "", false
}
