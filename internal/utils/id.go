package utils

import "github.com/google/uuid"

// GenerateID returns a random (v4) UUID string.
func GenerateID() string {
	return uuid.NewString()
}

// IsValidID reports whether s is a UUID as produced by GenerateID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
