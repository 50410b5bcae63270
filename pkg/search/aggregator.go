package search

import (
	"context"
	"sync"
	"time"

	"github.com/logai/logai/pkg/output"
	"github.com/logai/logai/pkg/scanner"
)

// Progress emission has two independent triggers: a size-scaled match
// delta so bursts report promptly, and a minimum interval so slow scans
// still surface liveness once anything new arrived.
const (
	progressSmallDelta = 10
	progressLargeDelta = 100
	progressLargeAt    = 1000
	progressMinGap     = 2 * time.Second
)

// aggregator collects matches from concurrent per-service scans and emits
// throttled progress records. All methods are safe for concurrent use.
type aggregator struct {
	pattern  string
	sideband output.Writer

	mu            sync.Mutex
	matches       []scanner.Match
	perService    map[string]int64
	filesSearched int64
	errs          []serviceError
	lastEmitAt    time.Time
	lastEmitTotal int64
}

func newAggregator(pattern string, sideband output.Writer) *aggregator {
	return &aggregator{
		pattern:    pattern,
		sideband:   sideband,
		perService: make(map[string]int64),
		// The interval trigger measures from the start of the search
		// until the first emission.
		lastEmitAt: time.Now(),
	}
}

// addFiles records files handed to a scanner before its scan starts.
func (a *aggregator) addFiles(n int) {
	a.mu.Lock()
	a.filesSearched += int64(n)
	a.mu.Unlock()
}

// add appends one match and emits a progress record when the throttle
// allows.
func (a *aggregator) add(ctx context.Context, m scanner.Match) {
	a.mu.Lock()
	a.matches = append(a.matches, m)
	a.perService[m.Service]++
	prog, emit := a.progressLocked()
	a.mu.Unlock()

	if emit {
		// The sideband writer serializes internally; failures here must
		// never disturb the scan.
		_ = a.sideband.WriteProgress(ctx, prog)
	}
}

// progressLocked decides whether a progress record is due and builds it.
// A record is due when the match delta reached the size-scaled threshold,
// or when the minimum interval elapsed and anything new arrived. Caller
// holds a.mu.
func (a *aggregator) progressLocked() (*output.ProgressRecord, bool) {
	total := int64(len(a.matches))
	delta := total - a.lastEmitTotal
	if delta < 1 {
		return nil, false
	}

	threshold := int64(progressSmallDelta)
	if total >= progressLargeAt {
		threshold = progressLargeDelta
	}

	now := time.Now()
	if delta < threshold && now.Sub(a.lastEmitAt) < progressMinGap {
		return nil, false
	}
	a.lastEmitAt = now
	a.lastEmitTotal = total

	per := make(map[string]int64, len(a.perService))
	for k, v := range a.perService {
		per[k] = v
	}
	return &output.ProgressRecord{
		Pattern:       a.pattern,
		TotalMatches:  total,
		PerService:    per,
		FilesSearched: a.filesSearched,
	}, true
}

// fail records a per-service failure and emits an error record. Matches
// already collected from the failed service stand.
func (a *aggregator) fail(ctx context.Context, service string, kind Kind, err error) {
	a.mu.Lock()
	a.errs = append(a.errs, serviceError{Service: service, Kind: kind, Err: err})
	a.mu.Unlock()

	_ = a.sideband.WriteError(ctx, &output.ErrorRecord{
		Code:    string(kind),
		Message: err.Error(),
		Service: service,
	})
}

// snapshot returns the collected state after all scans settle.
func (a *aggregator) snapshot() (matches []scanner.Match, filesSearched int64, errs []serviceError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.matches, a.filesSearched, a.errs
}
