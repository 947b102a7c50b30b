package utils

import "github.com/google/uuid"

// NewID returns a random UUID v4 string.
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s is a well formed UUID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
