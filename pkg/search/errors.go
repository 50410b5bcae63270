package search

import (
	"fmt"
	"strings"
)

// Kind classifies executor-level failures. All are non-fatal to the
// process; each is surfaced in result metadata or as the call's top-level
// error.
type Kind string

const (
	KindServiceNotFound Kind = "ServiceNotFound"
	KindDiscoveryFailed Kind = "DiscoveryFailed"
	KindScannerFailed   Kind = "ScannerFailed"
	KindTimeout         Kind = "Timeout"
	KindSpillFailed     Kind = "SpillFailed"
	KindInternal        Kind = "Internal"
)

// Error is an executor-level failure with a classified kind.
type Error struct {
	Kind    Kind
	Message string

	// Suggestions accompanies ServiceNotFound: the nearest known
	// service names.
	Suggestions []string

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// serviceError records one failed per-service scan for metadata assembly.
type serviceError struct {
	Service string
	Kind    Kind
	Err     error
}

// summarizeServiceErrors builds the one-line kind+reason summary stored in
// metadata when a search is partial.
func summarizeServiceErrors(errs []serviceError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, se := range errs {
		parts = append(parts, fmt.Sprintf("%s[%s]: %v", se.Kind, se.Service, se.Err))
	}
	return strings.Join(parts, "; ")
}
