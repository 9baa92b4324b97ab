package internal

import (
	"strings"
)

const (
	keywordsPrefix = "keywords="
	albumsPrefix   = "albums="
	facesPrefix    = "faces="
)

// Record is one image entry of a sidecar with its tags in source order.
type Record struct {
	ImageName string   `json:"image"`
	Tags      []string `json:"tags"`
}

// ExtractOptions controls how album and face tokens become tags.
type ExtractOptions struct {
	// MetaPrefix namespaces tags derived from albums and faces.
	MetaPrefix string
}

// ExtractStats counts references that could not be turned into tags.
type ExtractStats struct {
	Records          int
	Unresolved       int
	UnresolvedTokens []string
}

// WalkRecords reads every record of r and calls fn for each one that carries
// at least one tag. Keyword tags come first, then album tags, then face tags.
// A nil idx disables album and face tags entirely.
//
// Records before a malformed line are delivered; the ErrMalformedSidecar is
// returned once the bad line is reached.
func WalkRecords(r *LineReader, idx *TokenIndex, opts ExtractOptions, fn func(Record) error) (ExtractStats, error) {
	var stats ExtractStats

	for r.HasMore() {
		name, err := r.NextHeader()
		if err != nil {
			return stats, err
		}

		var keywords, albums, faces []string
		for r.HasMore() && !r.PeekIsHeader() {
			line := r.Next()
			switch {
			case strings.HasPrefix(line, keywordsPrefix):
				keywords = appendKeywords(keywords, strings.TrimPrefix(line, keywordsPrefix))
			case strings.HasPrefix(line, albumsPrefix):
				if idx == nil {
					continue
				}
				for _, token := range strings.Split(strings.TrimPrefix(line, albumsPrefix), ",") {
					albums = stats.resolve(albums, idx, opts.MetaPrefix, token)
				}
			case strings.HasPrefix(line, facesPrefix):
				if idx == nil {
					continue
				}
				for _, pair := range strings.Split(strings.TrimPrefix(line, facesPrefix), ";") {
					faces = stats.resolve(faces, idx, opts.MetaPrefix, faceToken(pair))
				}
			}
		}

		tags := make([]string, 0, len(keywords)+len(albums)+len(faces))
		tags = append(tags, keywords...)
		tags = append(tags, albums...)
		tags = append(tags, faces...)
		if len(tags) == 0 {
			continue
		}

		stats.Records++
		if err := fn(Record{ImageName: name, Tags: tags}); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// ExtractRecords collects every tagged record of r.
func ExtractRecords(r *LineReader, idx *TokenIndex, opts ExtractOptions) ([]Record, ExtractStats, error) {
	var records []Record
	stats, err := WalkRecords(r, idx, opts, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	return records, stats, err
}

func appendKeywords(tags []string, list string) []string {
	for _, kw := range strings.Split(list, ",") {
		if kw == "" {
			continue
		}
		tags = append(tags, kw)
	}
	return tags
}

// faceToken returns the token of a "rect64(<box>),<token>" pair.
func faceToken(pair string) string {
	if _, token, ok := strings.Cut(pair, ","); ok {
		return token
	}
	return pair
}

func (s *ExtractStats) resolve(tags []string, idx *TokenIndex, prefix, token string) []string {
	if token == "" {
		return tags
	}
	name, ok := idx.Lookup(token)
	if !ok {
		s.Unresolved++
		s.UnresolvedTokens = append(s.UnresolvedTokens, token)
		return tags
	}
	return append(tags, prefix+name)
}
