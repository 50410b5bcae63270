package output

import "context"

// nopWriter discards all records.
type nopWriter struct{}

func (nopWriter) WriteProgress(context.Context, *ProgressRecord) error { return nil }
func (nopWriter) WriteError(context.Context, *ErrorRecord) error       { return nil }
func (nopWriter) WriteSummary(context.Context, *SummaryRecord) error   { return nil }
func (nopWriter) Close() error                                         { return nil }

// Nop returns a Writer that discards everything. Useful when the caller
// has no sideband stream attached.
func Nop() Writer {
	return nopWriter{}
}
