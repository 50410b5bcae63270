package cmd

import (
	"errors"
	"fmt"
)

// codedError carries a foundry exit code alongside the cause.
type codedError struct {
	code    int
	message string
	err     error
}

func (e *codedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *codedError) Unwrap() error {
	return e.err
}

// exitError wraps err so Execute maps it to the given exit code.
func exitError(code int, message string, err error) error {
	return &codedError{code: code, message: message, err: err}
}

func exitCodeOf(err error) int {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
