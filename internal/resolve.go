package internal

import (
	"strings"
)

// AlbumLocator looks up catalog album roots and albums.
type AlbumLocator interface {
	LookupRoot(specificPath string) (int64, bool, error)
	LookupAlbum(rootID int64, relativePath string) (int64, bool, error)
}

// CatalogPath is an album root plus the album path relative to it.
type CatalogPath struct {
	RootID       int64
	RootPath     string
	RelativePath string
}

// ResolveAlbum maps an absolute directory to its catalog album id. A
// directory the catalog has never indexed is (0, false, nil).
func ResolveAlbum(loc AlbumLocator, dir string) (int64, bool, error) {
	cp, ok, err := ResolveCatalogPath(loc, dir)
	if err != nil || !ok {
		return 0, false, err
	}
	return loc.LookupAlbum(cp.RootID, cp.RelativePath)
}

// ResolveCatalogPath finds the longest prefix of dir that is an album root.
// The rest of the path is the album's relative path, "/" for the root itself.
func ResolveCatalogPath(loc AlbumLocator, dir string) (CatalogPath, bool, error) {
	segments := splitSegments(NormalizeCatalogPath(dir))

	// segments[0] is "" for an absolute path; a lone "" candidate never matches.
	for n := len(segments); n > 0; n-- {
		candidate := strings.Join(segments[:n], "/")
		if candidate == "" {
			break
		}
		rootID, ok, err := loc.LookupRoot(candidate)
		if err != nil {
			return CatalogPath{}, false, err
		}
		if !ok {
			continue
		}

		rel := "/"
		if rest := segments[n:]; len(rest) > 0 {
			rel = "/" + strings.Join(rest, "/")
		}
		return CatalogPath{RootID: rootID, RootPath: candidate, RelativePath: rel}, true, nil
	}

	return CatalogPath{}, false, nil
}

// NormalizeCatalogPath converts dir to the form digiKam stores: forward
// slashes, no drive letter, no trailing separator.
func NormalizeCatalogPath(dir string) string {
	p := strings.ReplaceAll(dir, `\`, "/")
	if _, rest, ok := strings.Cut(p, ":"); ok {
		p = rest
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func splitSegments(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
