// Package uuid generates identifiers for requests and incidents.
package uuid

import "github.com/google/uuid"

// New returns a random (version 4) UUID string.
func New() string {
	return uuid.NewString()
}

// Short returns the first 8 hex characters of a new UUID, enough to find an
// incident in logs without cluttering user-facing responses.
func Short() string {
	return New()[:8]
}
