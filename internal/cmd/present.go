package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/logai/logai/pkg/search"
)

// present renders a result set to w in the chosen format. The text form
// is for humans; json is the full result for tooling.
func present(w io.Writer, rs *search.ResultSet, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rs)
	}
	return presentText(w, rs)
}

func presentText(w io.Writer, rs *search.ResultSet) error {
	md := rs.Metadata

	for _, m := range rs.Matches {
		fmt.Fprintf(w, "%s %s:%d: %s\n", m.Service, m.FilePath, m.LineNumber, m.Content.String())
	}
	if len(rs.Matches) > 0 {
		fmt.Fprintln(w)
	}

	flags := ""
	if md.Cached {
		flags += " (cached)"
	}
	if md.Partial {
		flags += " (partial)"
	}

	fmt.Fprintf(w, "%d matches across %d files in %s%s\n",
		md.TotalMatches, md.FilesSearched,
		(time.Duration(md.DurationSeconds * float64(time.Second))).Round(time.Millisecond),
		flags)

	if md.Overflow {
		fmt.Fprintf(w, "showing first %d matches; full result: %s\n", len(rs.Matches), md.SavedTo)
	} else if md.SavedTo != "" {
		fmt.Fprintf(w, "saved to %s\n", md.SavedTo)
	}
	if md.Error != "" {
		fmt.Fprintf(w, "warnings: %s\n", md.Error)
	}
	return nil
}
