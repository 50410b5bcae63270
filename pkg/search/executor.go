// Package search implements the concurrent search executor: resolution,
// cache probe, admission, bounded fan-out, assembly, spill, and cache
// publish.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/logai/logai/pkg/catalog"
	"github.com/logai/logai/pkg/coord"
	"github.com/logai/logai/pkg/discover"
	"github.com/logai/logai/pkg/output"
	"github.com/logai/logai/pkg/scanner"
	"github.com/logai/logai/pkg/spill"
)

// Default execution limits, applied when Options leaves a field zero.
const (
	DefaultPerCallSlots = 5
	DefaultDeadline     = 300 * time.Second
	DefaultPreviewLimit = 50
)

// Options bounds a single search call.
type Options struct {
	// PerCallSlots caps how many services scan concurrently within one
	// search.
	PerCallSlots int64

	// Deadline auto-cancels a search that runs too long. Matches drained
	// before the cutoff are kept and the result is marked partial.
	Deadline time.Duration

	// PreviewLimit caps the inline match list. The spill file always
	// holds the complete set.
	PreviewLimit int
}

func (o Options) withDefaults() Options {
	if o.PerCallSlots <= 0 {
		o.PerCallSlots = DefaultPerCallSlots
	}
	if o.Deadline <= 0 {
		o.Deadline = DefaultDeadline
	}
	if o.PreviewLimit <= 0 {
		o.PreviewLimit = DefaultPreviewLimit
	}
	return o
}

// Request is one search call.
type Request struct {
	// Services are loose user queries, resolved against the catalog.
	Services []string

	// Locale optionally narrows resolution to a deployment region.
	Locale string

	// Pattern is the literal text to search for, case-insensitively.
	Pattern string

	// Window is the time interval to cover.
	Window discover.Window
}

// Scanner is the executor's view of the line-scanner adapter.
type Scanner interface {
	Scan(ctx context.Context, files []string, pattern, service string, emit func(scanner.Match)) error
}

// Executor runs searches end to end. It is safe for concurrent use; every
// call passes through the shared admission semaphore.
type Executor struct {
	catalog *catalog.Catalog
	coord   *coord.Coordinator
	scanner Scanner
	spill   *spill.Store
	opts    Options
	log     *zap.Logger
}

// NewExecutor assembles an executor over the shared infrastructure.
func NewExecutor(cat *catalog.Catalog, co *coord.Coordinator, sc Scanner, store *spill.Store, opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		catalog: cat,
		coord:   co,
		scanner: sc,
		spill:   store,
		opts:    opts.withDefaults(),
		log:     log,
	}
}

// Search executes one search. Progress and per-service errors stream to
// sideband while the search runs; the returned result carries the bounded
// preview and metadata.
func (e *Executor) Search(ctx context.Context, req Request, sideband output.Writer) (*ResultSet, error) {
	started := time.Now()
	metrics := e.coord.Metrics()
	if sideband == nil {
		sideband = output.Nop()
	}

	resolved, err := e.resolve(req)
	if err != nil {
		metrics.RecordError(string(KindServiceNotFound))
		return nil, err
	}
	names := make([]string, len(resolved))
	for i, d := range resolved {
		names[i] = d.Name
	}

	key := Fingerprint(names, req.Pattern, req.Window)

	if data, ok := e.coord.CacheGet(ctx, key); ok {
		if rs, derr := decodeResult(data); derr == nil {
			metrics.RecordCacheHit()
			rs.Metadata.Cached = true
			e.writeSummary(ctx, sideband, rs)
			e.log.Debug("cache hit", zap.String("key", key), zap.Int64("matches", rs.Metadata.TotalMatches))
			return rs, nil
		}
		// A corrupt entry is treated as a miss; the fresh result will
		// overwrite it.
		e.log.Warn("discarding undecodable cache entry", zap.String("key", key))
	}
	metrics.RecordCacheMiss()

	release, err := e.coord.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordError(string(KindInternal))
		return nil, &Error{Kind: KindInternal, Message: "admission failed", Err: err}
	}
	defer release()

	scanCtx, cancel := context.WithTimeout(ctx, e.opts.Deadline)
	defer cancel()

	agg := newAggregator(req.Pattern, sideband)
	e.fanOut(scanCtx, resolved, req.Pattern, req.Window, agg)

	timedOut := errors.Is(scanCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	rs, err := e.assemble(names, req, agg, started, timedOut)
	if err != nil {
		metrics.RecordError(string(KindSpillFailed))
		return nil, err
	}

	metrics.RecordSearchDuration(time.Since(started))
	metrics.RecordMatches(rs.Metadata.TotalMatches)
	metrics.RecordFilesScanned(rs.Metadata.FilesSearched)
	if rs.Metadata.Overflow {
		metrics.RecordOverflow()
	}
	if timedOut {
		metrics.RecordTimeout()
	}
	for _, se := range e.collectKinds(agg) {
		metrics.RecordError(string(se))
	}

	if !rs.Metadata.Partial && !rs.Metadata.Overflow {
		if data, eerr := encodeResult(rs); eerr == nil {
			e.coord.CachePut(ctx, key, data)
		}
	}

	e.writeSummary(ctx, sideband, rs)
	return rs, nil
}

// resolve maps the request's loose queries to a deduplicated descriptor
// set, preserving first-seen order.
func (e *Executor) resolve(req Request) ([]catalog.Descriptor, error) {
	if len(req.Services) == 0 {
		return nil, &Error{Kind: KindServiceNotFound, Message: "no services given"}
	}

	seen := make(map[string]bool)
	var resolved []catalog.Descriptor
	var unmatched []string
	for _, q := range req.Services {
		hits := e.catalog.Resolve(q, req.Locale)
		if len(hits) == 0 {
			unmatched = append(unmatched, q)
			continue
		}
		for _, d := range hits {
			if !seen[d.Name] {
				seen[d.Name] = true
				resolved = append(resolved, d)
			}
		}
	}

	if len(resolved) == 0 {
		return nil, &Error{
			Kind:        KindServiceNotFound,
			Message:     fmt.Sprintf("no services match %v", req.Services),
			Suggestions: e.catalog.Suggest(req.Services[0]),
		}
	}
	if len(unmatched) > 0 {
		e.log.Debug("some service queries matched nothing", zap.Strings("unmatched", unmatched))
	}
	return resolved, nil
}

// fanOut scans every resolved service under the per-call concurrency cap.
// One service's failure never cancels its siblings; the deadline on ctx is
// the only thing that stops the group early.
func (e *Executor) fanOut(ctx context.Context, services []catalog.Descriptor, pattern string, w discover.Window, agg *aggregator) {
	sem := semaphore.NewWeighted(e.opts.PerCallSlots)
	var wg sync.WaitGroup

	for _, svc := range services {
		wg.Add(1)
		go func(svc catalog.Descriptor) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				// Deadline fired while queued; the group result is
				// already marked partial by the caller.
				return
			}
			defer sem.Release(1)
			e.scanService(ctx, svc, pattern, w, agg)
		}(svc)
	}
	wg.Wait()
}

// scanService discovers and scans one service's files, streaming matches
// into the aggregator.
func (e *Executor) scanService(ctx context.Context, svc catalog.Descriptor, pattern string, w discover.Window, agg *aggregator) {
	tmpl, err := discover.CompileTemplate(svc.PathTemplate)
	if err != nil {
		// Catalog validation makes this unreachable for loaded catalogs.
		agg.fail(ctx, svc.Name, KindDiscoveryFailed, err)
		return
	}

	files, err := discover.Discover(tmpl, w)
	if err != nil {
		agg.fail(ctx, svc.Name, KindDiscoveryFailed, err)
		return
	}
	agg.addFiles(len(files))
	if len(files) == 0 {
		return
	}

	err = e.scanner.Scan(ctx, files, pattern, svc.Name, func(m scanner.Match) {
		agg.add(ctx, m)
	})
	if err != nil && ctx.Err() == nil {
		agg.fail(ctx, svc.Name, KindScannerFailed, err)
	}
}

// assemble orders the match set, spills the full result, and builds the
// bounded preview with its metadata.
func (e *Executor) assemble(names []string, req Request, agg *aggregator, started time.Time, timedOut bool) (*ResultSet, error) {
	matches, filesSearched, svcErrs := agg.snapshot()

	// Stable order so equal searches serialize identically.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Service != matches[j].Service {
			return matches[i].Service < matches[j].Service
		}
		if matches[i].FilePath != matches[j].FilePath {
			return matches[i].FilePath < matches[j].FilePath
		}
		return matches[i].LineNumber < matches[j].LineNumber
	})

	partial := timedOut || len(svcErrs) > 0
	total := int64(len(matches))
	overflow := total > int64(e.opts.PreviewLimit)

	savedTo, err := e.spill.Write(matches, spill.ServiceLabel(names), partial)
	if err != nil {
		return nil, &Error{Kind: KindSpillFailed, Message: "persist full result", Err: err}
	}

	preview := matches
	if overflow {
		preview = matches[:e.opts.PreviewLimit]
	}
	if preview == nil {
		preview = []scanner.Match{}
	}

	errSummary := summarizeServiceErrors(svcErrs)
	if timedOut {
		deadlineMsg := fmt.Sprintf("%s: search exceeded %s, partial results kept", KindTimeout, e.opts.Deadline)
		if errSummary != "" {
			errSummary = deadlineMsg + "; " + errSummary
		} else {
			errSummary = deadlineMsg
		}
	}

	return &ResultSet{
		Matches: preview,
		Metadata: Metadata{
			Services:        names,
			Pattern:         req.Pattern,
			Window:          req.Window,
			TotalMatches:    total,
			FilesSearched:   filesSearched,
			DurationSeconds: time.Since(started).Seconds(),
			Partial:         partial,
			Overflow:        overflow,
			SavedTo:         savedTo,
			Error:           errSummary,
		},
	}, nil
}

func (e *Executor) collectKinds(agg *aggregator) []Kind {
	_, _, errs := agg.snapshot()
	kinds := make([]Kind, 0, len(errs))
	for _, se := range errs {
		kinds = append(kinds, se.Kind)
	}
	return kinds
}

func (e *Executor) writeSummary(ctx context.Context, sideband output.Writer, rs *ResultSet) {
	if sideband == nil {
		return
	}
	d := time.Duration(rs.Metadata.DurationSeconds * float64(time.Second))
	_ = sideband.WriteSummary(ctx, &output.SummaryRecord{
		Services:      rs.Metadata.Services,
		Pattern:       rs.Metadata.Pattern,
		TotalMatches:  rs.Metadata.TotalMatches,
		FilesSearched: rs.Metadata.FilesSearched,
		Duration:      d,
		DurationHuman: d.Round(time.Millisecond).String(),
		Cached:        rs.Metadata.Cached,
		Partial:       rs.Metadata.Partial,
		Overflow:      rs.Metadata.Overflow,
		SavedTo:       rs.Metadata.SavedTo,
	})
}
