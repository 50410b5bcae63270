package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorRendering(t *testing.T) {
	err := &Error{Kind: KindServiceNotFound, Message: `no service matches "atuh"`}
	assert.Equal(t, `ServiceNotFound: no service matches "atuh"`, err.Error())

	err.Suggestions = []string{"auth", "oauth"}
	assert.Contains(t, err.Error(), "did you mean: auth, oauth")
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &Error{Kind: KindSpillFailed, Message: "persist full result", Err: inner}
	assert.ErrorIs(t, err, inner)

	var serr *Error
	assert.ErrorAs(t, error(err), &serr)
	assert.Equal(t, KindSpillFailed, serr.Kind)
}

func TestSummarizeServiceErrors(t *testing.T) {
	assert.Empty(t, summarizeServiceErrors(nil))

	got := summarizeServiceErrors([]serviceError{
		{Service: "auth", Kind: KindScannerFailed, Err: errors.New("exit 2")},
		{Service: "billing", Kind: KindDiscoveryFailed, Err: errors.New("bad glob")},
	})
	assert.Equal(t, "ScannerFailed[auth]: exit 2; DiscoveryFailed[billing]: bad glob", got)
}
