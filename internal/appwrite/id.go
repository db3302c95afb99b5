package appwrite

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueID returns a new document or file id. Platform ids allow at most 36
// characters from [a-zA-Z0-9._-] and may not start with a special character.
func UniqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
