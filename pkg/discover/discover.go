package discover

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Window is a half-open UTC time interval [Start, End).
//
// Callers provide both endpoints with second precision; the engine applies
// no timezone logic beyond converting to UTC.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow builds a window, normalizing both endpoints to UTC.
func NewWindow(start, end time.Time) (Window, error) {
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s precedes start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

// Hours returns each UTC hour the window touches, from floor(Start, 1h)
// through the final partial hour.
func (w Window) Hours() []time.Time {
	var hours []time.Time
	h := w.Start.Truncate(time.Hour)
	end := w.End
	if end.Equal(w.Start) {
		// Degenerate window still covers the hour it sits in.
		end = w.Start.Add(time.Second)
	}
	for h.Before(end) {
		hours = append(hours, h)
		h = h.Add(time.Hour)
	}
	return hours
}

// Discover enumerates the concrete log files a template covers over a
// window.
//
// For date-partitioned templates each covered hour is expanded and globbed
// independently; templates without date placeholders are globbed once.
// Missing hours simply contribute nothing. The function is read-only and
// the order of returned paths is unspecified.
func Discover(t *Template, w Window) ([]string, error) {
	if !t.HasDateParts() {
		return glob(t.Expand(time.Time{}))
	}

	var files []string
	for _, hour := range w.Hours() {
		matches, err := glob(t.Expand(hour))
		if err != nil {
			return files, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return matches, nil
}
