// Package spill persists full match sets to durable files and serves them
// back, keeping inline responses bounded.
//
// Every search spills, overflow or not: the spill file is the authoritative
// copy of the result, the inline preview is a bounded prefix of it.
package spill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logai/logai/pkg/scanner"
)

// Filename grammar:
//
//	logai-(search|partial)-<yyyymmdd-hhmmss>-<service-label>-<rand8>.json
//
// The "partial" kind marks results cut short by a failure or the deadline.
const (
	filePrefix    = "logai-"
	KindSearch    = "search"
	KindPartial   = "partial"
	timestampForm = "20060102-150405"
)

// maxLabelBytes truncates the service label embedded in filenames.
const maxLabelBytes = 24

var fileNameRE = regexp.MustCompile(`^logai-(search|partial)-(\d{8}-\d{6})-(.+)-([0-9a-f]{8})\.json$`)

// Store writes and reads spill files under a per-session directory inside
// the configured output root.
type Store struct {
	root       string // configured output root; read-back validates against this
	sessionDir string
	log        *zap.Logger
}

// NewStore creates the session directory under root.
func NewStore(root, sessionID string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	sessionDir := filepath.Join(absRoot, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{root: absRoot, sessionDir: sessionDir, log: log}, nil
}

// Root returns the output root the store validates read-backs against.
func (s *Store) Root() string {
	return s.root
}

// Write persists the full match list as a pretty-printed JSON array and
// returns the file path. partial selects the filename kind.
func (s *Store) Write(matches []scanner.Match, label string, partial bool) (string, error) {
	kind := KindSearch
	if partial {
		kind = KindPartial
	}

	name := fmt.Sprintf("%s%s-%s-%s-%s.json",
		filePrefix,
		kind,
		time.Now().UTC().Format(timestampForm),
		sanitizeLabel(label),
		randSuffix(),
	)
	path := filepath.Join(s.sessionDir, name)

	if matches == nil {
		matches = []scanner.Match{}
	}
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode matches: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write spill file: %w", err)
	}

	s.log.Debug("spill written",
		zap.String("path", path),
		zap.Int("matches", len(matches)),
		zap.Bool("partial", partial))
	return path, nil
}

// ReadResult is the outcome of a spill read-back.
type ReadResult struct {
	Matches   []scanner.Match
	TotalSize int64 // file size in bytes
}

// Read validates and loads a spill file.
//
// Validation: the path must be absolute, live inside the output root, carry
// the documented filename prefix, and exist. Files larger than maxBytes are
// refused so callers reach for out-of-band tooling instead.
func (s *Store) Read(path string, maxBytes int64) (*ReadResult, error) {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return nil, &ReadError{Kind: ErrInvalidPath, Path: path, Reason: "path must be absolute"}
	}
	rel, err := filepath.Rel(s.root, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, &ReadError{Kind: ErrInvalidPath, Path: path, Reason: fmt.Sprintf("path is outside the output directory %s", s.root)}
	}

	base := filepath.Base(clean)
	if !fileNameRE.MatchString(base) {
		return nil, &ReadError{Kind: ErrPrefixMismatch, Path: path, Reason: "filename does not match logai-(search|partial)-*.json"}
	}

	info, err := os.Stat(clean)
	if os.IsNotExist(err) {
		return nil, &ReadError{Kind: ErrNotFound, Path: path, Reason: "file does not exist"}
	}
	if err != nil {
		return nil, &ReadError{Kind: ErrInvalidPath, Path: path, Reason: err.Error()}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, &ReadError{
			Kind:   ErrFileTooLarge,
			Path:   path,
			Reason: fmt.Sprintf("file is %d bytes, cap is %d; use offline tooling for results this large", info.Size(), maxBytes),
		}
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, &ReadError{Kind: ErrNotFound, Path: path, Reason: err.Error()}
	}

	var matches []scanner.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, &ReadError{Kind: ErrDecode, Path: path, Reason: err.Error()}
	}

	return &ReadResult{Matches: matches, TotalSize: info.Size()}, nil
}

// ServiceLabel derives the filename label from the resolved service set:
// the first name, normalized for filesystem safety and truncated, with a
// +N marker for multi-service searches.
func ServiceLabel(services []string) string {
	if len(services) == 0 {
		return "none"
	}
	label := sanitizeLabel(services[0])
	if len(services) > 1 {
		label = fmt.Sprintf("%s+%d", label, len(services)-1)
	}
	return label
}

// sanitizeLabel normalizes a label for filesystem safety. The '+' of the
// multi-service marker passes through so ServiceLabel output survives
// Write intact.
func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxLabelBytes {
			break
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
