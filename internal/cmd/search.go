package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/logai/logai/pkg/discover"
	"github.com/logai/logai/pkg/output"
	"github.com/logai/logai/pkg/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search service logs for a literal pattern",
	Long: `Search the logs of one or more services for a literal pattern,
case-insensitively, over a time window.

Service names are resolved loosely: exact names, alternate names, and
prefix-stripped or substring matches all work. Progress streams to stderr
as JSONL; the result goes to stdout.

Example:
  logai search "connection refused" --service auth --since 2h
  logai search "trace-id-4711" --service auth --service billing --locale us
  logai search "OOM" --service payments --start 2026-08-23T00:00:00Z --end 2026-08-24T00:00:00Z --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchServices []string
	searchLocale   string
	searchSince    time.Duration
	searchStart    string
	searchEnd      string
	searchFormat   string
	searchQuiet    bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringArrayVarP(&searchServices, "service", "s", nil, "Service to search (repeatable, required)")
	searchCmd.Flags().StringVar(&searchLocale, "locale", "", "Deployment locale (ca|us|na)")
	searchCmd.Flags().DurationVar(&searchSince, "since", 0, "Relative window ending now (e.g. 2h, 30m)")
	searchCmd.Flags().StringVar(&searchStart, "start", "", "Window start (RFC3339)")
	searchCmd.Flags().StringVar(&searchEnd, "end", "", "Window end (RFC3339, default now)")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "text", "Output format (text|json)")
	searchCmd.Flags().BoolVarP(&searchQuiet, "quiet", "q", false, "Suppress progress records")

	_ = searchCmd.MarkFlagRequired("service")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pattern := args[0]

	if searchFormat != "text" && searchFormat != "json" {
		return exitError(foundry.ExitInvalidArgument, "Invalid --format value",
			fmt.Errorf("unsupported format: %s", searchFormat))
	}

	window, err := resolveWindow(searchSince, searchStart, searchEnd)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid time window", err)
	}

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(cmd.Context())

	var sideband output.Writer = output.Nop()
	if !searchQuiet {
		sideband = output.NewJSONLWriter(os.Stderr, eng.sessionID)
	}
	defer func() { _ = sideband.Close() }()

	eng.log.Debug("starting search",
		zap.Strings("services", searchServices),
		zap.String("pattern", pattern),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End))

	rs, err := eng.exec.Search(ctx, search.Request{
		Services: searchServices,
		Locale:   searchLocale,
		Pattern:  pattern,
		Window:   window,
	}, sideband)
	if err != nil {
		if ctx.Err() != nil {
			return exitError(foundry.ExitSignalInt, "Search cancelled", err)
		}
		var serr *search.Error
		if errors.As(err, &serr) && serr.Kind == search.KindServiceNotFound {
			return exitError(foundry.ExitInvalidArgument, "Unknown service", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Search failed", err)
	}

	return present(os.Stdout, rs, searchFormat)
}

// resolveWindow folds the flag forms into one window. --since wins over
// --start/--end when both are given.
func resolveWindow(since time.Duration, startStr, endStr string) (discover.Window, error) {
	now := time.Now().UTC()

	if since > 0 {
		return discover.NewWindow(now.Add(-since), now)
	}

	end := now
	if endStr != "" {
		t, err := parseTimeFlag(endStr)
		if err != nil {
			return discover.Window{}, fmt.Errorf("invalid --end: %w", err)
		}
		end = t
	}

	start := end.Add(-time.Hour)
	if startStr != "" {
		t, err := parseTimeFlag(startStr)
		if err != nil {
			return discover.Window{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}

	return discover.NewWindow(start, end)
}

func parseTimeFlag(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC3339 or YYYY-MM-DD)", s)
}
