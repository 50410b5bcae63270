package spill

import "fmt"

// ReadErrorKind classifies spill read-back failures.
type ReadErrorKind string

const (
	ErrInvalidPath    ReadErrorKind = "InvalidPath"
	ErrPrefixMismatch ReadErrorKind = "PrefixMismatch"
	ErrNotFound       ReadErrorKind = "NotFound"
	ErrFileTooLarge   ReadErrorKind = "FileTooLarge"
	ErrDecode         ReadErrorKind = "DecodeError"
)

// ReadError is a terminal spill read-back failure. Callers surface it as a
// single diagnostic line.
type ReadError struct {
	Kind   ReadErrorKind
	Path   string
	Reason string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Reason)
}
