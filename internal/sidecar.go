package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const headerDelim = '['

// Sidecar is a sidecar file held in memory so it can be read more than once.
type Sidecar struct {
	Path  string
	lines []string
}

// LoadSidecar reads dir/name. A missing file yields ErrSidecarNotFound.
func LoadSidecar(dir, name string) (*Sidecar, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrSidecarNotFound)
		}
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}
	return ParseSidecar(path, string(data)), nil
}

// ParseSidecar splits text into logical lines. Blank lines are dropped and
// trailing carriage returns removed.
func ParseSidecar(path, text string) *Sidecar {
	sc := &Sidecar{Path: path}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		sc.lines = append(sc.lines, line)
	}
	return sc
}

// Lines returns a reader positioned at the first line.
func (s *Sidecar) Lines() *LineReader {
	return &LineReader{path: s.Path, lines: s.lines}
}

// LineReader is a forward-only cursor over a sidecar with one line of lookahead.
type LineReader struct {
	path  string
	lines []string
	pos   int
}

func (r *LineReader) HasMore() bool {
	return r.pos < len(r.lines)
}

// PeekIsHeader reports whether the next line starts a record.
func (r *LineReader) PeekIsHeader() bool {
	return r.HasMore() && IsHeader(r.lines[r.pos])
}

// Next returns the next line, or "" at end of input.
func (r *LineReader) Next() string {
	if !r.HasMore() {
		return ""
	}
	line := r.lines[r.pos]
	r.pos++
	return line
}

// Line is the 1-based number of the last line returned by Next.
func (r *LineReader) Line() int {
	return r.pos
}

// NextHeader consumes the next line and returns its record name. A line that
// is not a header is an ErrMalformedSidecar.
func (r *LineReader) NextHeader() (string, error) {
	line := r.Next()
	name, ok := HeaderName(line)
	if !ok {
		return "", fmt.Errorf("%s:%d: expected [name], got %q: %w", r.path, r.Line(), line, ErrMalformedSidecar)
	}
	return name, nil
}

func IsHeader(line string) bool {
	return len(line) > 0 && line[0] == headerDelim
}

// HeaderName strips the brackets off a header line.
func HeaderName(line string) (string, bool) {
	if !IsHeader(line) {
		return "", false
	}
	return strings.TrimSuffix(line[1:], "]"), true
}
