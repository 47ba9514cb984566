package utils

import "github.com/google/uuid"

// NewID returns a random UUID used to tag a connection in logs and audit records.
func NewID() string {
	return uuid.NewString()
}
