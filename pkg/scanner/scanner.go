// Package scanner adapts external line-scanning tools into a streaming
// match source.
//
// One child process is launched per service-search. The child is ripgrep
// when available (case-insensitive, parallel scanning, file:line:content
// output); otherwise a NUL-delimited file list is piped through xargs to
// grep. Matches are emitted as the child produces them; stdout is never
// buffered in full.
package scanner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single scanned line. Pathologically long lines are
// split by bufio rather than aborting the scan.
const maxLineBytes = 1 << 20

// stderrCap bounds how much child stderr is retained for diagnostics.
const stderrCap = 8 << 10

// ErrNoScanner is returned when neither ripgrep nor grep is installed.
var ErrNoScanner = errors.New("no line scanner available (need rg or grep)")

// ScanError reports a child that exited abnormally after producing output.
type ScanError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Scanner launches line-scanning children. Tool paths are resolved once at
// construction; the same Scanner is safe for concurrent use.
type Scanner struct {
	rgPath    string
	grepPath  string
	xargsPath string
	log       *zap.Logger
}

// New resolves the available scanning tools.
func New(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scanner{log: log}
	if p, err := exec.LookPath("rg"); err == nil {
		s.rgPath = p
	}
	if p, err := exec.LookPath("grep"); err == nil {
		s.grepPath = p
	}
	if p, err := exec.LookPath("xargs"); err == nil {
		s.xargsPath = p
	}
	return s
}

// Available reports whether a usable scanning tool was found.
func (s *Scanner) Available() bool {
	return s.rgPath != "" || (s.grepPath != "" && s.xargsPath != "")
}

// Tool names the scanner that Scan will launch.
func (s *Scanner) Tool() string {
	switch {
	case s.rgPath != "":
		return "rg"
	case s.grepPath != "" && s.xargsPath != "":
		return "grep"
	default:
		return "none"
	}
}

// Scan searches the given files for a literal pattern, case-insensitively,
// and streams each match to emit as it is produced.
//
// Failure semantics: a child that exits non-zero without producing output
// means "no matches"; non-zero exit after partial output returns a
// *ScanError with the partial matches already delivered; a child that
// fails to launch returns the launch error.
func (s *Scanner) Scan(ctx context.Context, paths []string, pattern, serviceTag string, emit func(Match)) error {
	if len(paths) == 0 {
		return nil
	}

	cmd, tool, stdin, err := s.buildCommand(ctx, paths, pattern)
	if err != nil {
		return err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("scanner stdout: %w", err)
	}
	var stderr limitedBuffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", tool, err)
	}

	// Feed the file list after launch so a slow child cannot block Start.
	if stdin != nil {
		go func() {
			for _, p := range paths {
				if _, err := stdin.Write(append([]byte(p), 0)); err != nil {
					break
				}
			}
			_ = stdin.Close()
		}()
	}

	emitted := 0
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		m, ok := parseLine(sc.Text(), serviceTag)
		if !ok {
			continue
		}
		emitted++
		emit(m)
	}
	readErr := sc.Err()

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		// Cancelled: whatever was drained before the kill stands.
		return ctx.Err()
	}
	if readErr != nil {
		return fmt.Errorf("read %s output: %w", tool, readErr)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if emitted == 0 {
			// grep and rg exit 1 on "no matches"; treat any failure
			// with empty output the same way.
			s.log.Debug("scanner exited non-zero with no output",
				zap.String("tool", tool),
				zap.Int("code", exitErr.ExitCode()),
				zap.String("stderr", stderr.String()))
			return nil
		}
		return &ScanError{Tool: tool, ExitCode: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
	}
	if waitErr != nil {
		return fmt.Errorf("wait %s: %w", tool, waitErr)
	}
	return nil
}

// buildCommand prefers ripgrep; otherwise it pipes the NUL-delimited file
// list through xargs into grep. The returned stdin writer is non-nil only
// for the fan-out form.
func (s *Scanner) buildCommand(ctx context.Context, paths []string, pattern string) (cmd *exec.Cmd, tool string, stdin interface {
	Write([]byte) (int, error)
	Close() error
}, err error) {
	switch {
	case s.rgPath != "":
		args := []string{"--fixed-strings", "--ignore-case", "--line-number", "--with-filename", "--no-heading", "--", pattern}
		args = append(args, paths...)
		return exec.CommandContext(ctx, s.rgPath, args...), "rg", nil, nil

	case s.grepPath != "" && s.xargsPath != "":
		cmd := exec.CommandContext(ctx, s.xargsPath, "-0", s.grepPath, "-F", "-i", "-n", "-H", "--", pattern)
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, "", nil, fmt.Errorf("scanner stdin: %w", err)
		}
		return cmd, "grep", pipe, nil

	default:
		return nil, "", nil, ErrNoScanner
	}
}

// parseLine splits a file:line:content record on the first two separators.
func parseLine(line, serviceTag string) (Match, bool) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return Match{}, false
	}
	lineNo, err := strconv.Atoi(parts[1])
	if err != nil || lineNo < 1 {
		return Match{}, false
	}
	return Match{
		Service:    serviceTag,
		FilePath:   parts[0],
		LineNumber: lineNo,
		Content:    DecodeContent(parts[2]),
	}, true
}

// limitedBuffer retains at most stderrCap bytes.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if remaining := stderrCap - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
		}
		b.buf.Write(p)
	}
	return n, nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
