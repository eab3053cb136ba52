package utils

import "github.com/google/uuid"

// NewID returns a unique identifier for clients, channels, and messages.
func NewID() string {
	return uuid.NewString()
}
