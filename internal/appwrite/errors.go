package appwrite

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the platform's error body: {"message", "code", "type", "version"}.
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Version string `json:"version,omitempty"`
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("appwrite: %s (%d %s)", e.Message, e.Code, e.Type)
	}
	return fmt.Sprintf("appwrite: %s (%d)", e.Message, e.Code)
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == status
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsUnauthorized reports whether err is a 401 from the platform, which is
// what account endpoints return when no session is attached.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsConflict reports whether err is a 409 (duplicate id or unique index).
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }
