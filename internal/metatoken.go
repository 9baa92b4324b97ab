package internal

import "strings"

const (
	albumHeaderPrefix = "[.album:"
	contactsHeader    = "[Contacts2]"
)

// TokenCollision records a token defined more than once in one sidecar.
// Picasa never writes these; the later definition wins.
type TokenCollision struct {
	Token    string
	Previous string
	Current  string
}

// TokenIndex maps the opaque album and face tokens of a sidecar to display
// names. Albums and faces share one table.
type TokenIndex struct {
	names      map[string]string
	collisions []TokenCollision
}

func NewTokenIndex() *TokenIndex {
	return &TokenIndex{names: make(map[string]string)}
}

func (idx *TokenIndex) Lookup(token string) (string, bool) {
	if idx == nil {
		return "", false
	}
	name, ok := idx.names[token]
	return name, ok
}

func (idx *TokenIndex) Len() int {
	return len(idx.names)
}

func (idx *TokenIndex) Collisions() []TokenCollision {
	return idx.collisions
}

// Names returns a copy of the table.
func (idx *TokenIndex) Names() map[string]string {
	out := make(map[string]string, len(idx.names))
	for k, v := range idx.names {
		out[k] = v
	}
	return out
}

func (idx *TokenIndex) put(token, name string) {
	if prev, ok := idx.names[token]; ok && prev != name {
		idx.collisions = append(idx.collisions, TokenCollision{Token: token, Previous: prev, Current: name})
	}
	idx.names[token] = name
}

// BuildTokenIndex scans the album and contact blocks of a sidecar.
//
// An album block is
//
//	[.album:<token>]
//	name=<display name>
//	token=<token>
//
// and is a phantom (recorded nowhere) when a header follows the name line.
// The contacts block holds lines of the form <token>=<name>;<extra>;
func BuildTokenIndex(r *LineReader) *TokenIndex {
	idx := NewTokenIndex()

	line := r.Next()
	for {
		switch {
		case strings.HasPrefix(line, albumHeaderPrefix):
			if !r.HasMore() || r.PeekIsHeader() {
				line = r.Next()
				continue
			}
			name := afterEquals(r.Next())
			if !r.HasMore() {
				return idx
			}
			if r.PeekIsHeader() {
				// Phantom album: resume at the header.
				line = r.Next()
				continue
			}
			idx.put(afterEquals(r.Next()), name)
			line = r.Next()

		case line == contactsHeader:
			line = r.Next()
			for line != "" && !IsHeader(line) {
				if token, name, ok := parseContact(line); ok {
					idx.put(token, name)
				}
				line = r.Next()
			}

		default:
			if !r.HasMore() {
				return idx
			}
			line = r.Next()
		}
	}
}

func afterEquals(line string) string {
	_, v, _ := strings.Cut(line, "=")
	return v
}

func parseContact(line string) (token, name string, ok bool) {
	token, rest, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	name, _, _ = strings.Cut(rest, ";")
	return token, name, true
}
