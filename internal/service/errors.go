package service

import (
	"errors"
	"strings"
)

// ErrOwnerMismatch is returned when the authenticated clinician tries to
// operate on another owner's namespace.
var ErrOwnerMismatch = errors.New("authenticated identity does not match owner")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

type AuditEntry struct {
	Owner      string
	Action     string
	RecordID   string
	IPAddress  string
	RequestID  string
	StatusCode int
}
