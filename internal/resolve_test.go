package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapLocator answers root and album lookups from maps and records the root
// candidates it was asked about.
type mapLocator struct {
	roots    map[string]int64
	albums   map[int64]map[string]int64
	asked    []string
	rootErr  error
	albumErr error
}

func (l *mapLocator) LookupRoot(p string) (int64, bool, error) {
	l.asked = append(l.asked, p)
	if l.rootErr != nil {
		return 0, false, l.rootErr
	}
	id, ok := l.roots[p]
	return id, ok, nil
}

func (l *mapLocator) LookupAlbum(rootID int64, rel string) (int64, bool, error) {
	if l.albumErr != nil {
		return 0, false, l.albumErr
	}
	id, ok := l.albums[rootID][rel]
	return id, ok, nil
}

func newPhotosLocator() *mapLocator {
	return &mapLocator{
		roots: map[string]int64{"/photos": 1},
		albums: map[int64]map[string]int64{
			1: {"/": 5, "/2020/trip": 7},
		},
	}
}

func TestResolveAlbum(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want int64
		ok   bool
	}{
		{"album under root", "/photos/2020/trip", 7, true},
		{"trailing separator", "/photos/2020/trip/", 7, true},
		{"root itself", "/photos", 5, true},
		{"root with trailing separator", "/photos/", 5, true},
		{"drive letter", "D:/photos/2020/trip", 7, true},
		{"windows separators", `D:\photos\2020\trip\`, 7, true},
		{"unknown path", "/unknown/path", 0, false},
		{"album not indexed", "/photos/2021", 0, false},
		{"prefix is not a segment boundary", "/photosX/2020/trip", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ResolveAlbum(newPhotosLocator(), tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCatalogPath_TriesLongestPrefixFirst(t *testing.T) {
	loc := newPhotosLocator()

	cp, ok, err := ResolveCatalogPath(loc, "/photos/2020/trip")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, CatalogPath{RootID: 1, RootPath: "/photos", RelativePath: "/2020/trip"}, cp)
	assert.Equal(t, []string{"/photos/2020/trip", "/photos/2020", "/photos"}, loc.asked)
}

func TestResolveCatalogPath_NestedRootsPreferLongest(t *testing.T) {
	loc := &mapLocator{roots: map[string]int64{"/photos": 1, "/photos/2020": 2}}

	cp, ok, err := ResolveCatalogPath(loc, "/photos/2020/trip")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), cp.RootID)
	assert.Equal(t, "/trip", cp.RelativePath)
}

func TestResolveAlbum_StorageErrors(t *testing.T) {
	boom := errors.New("boom")

	loc := newPhotosLocator()
	loc.rootErr = boom
	_, _, err := ResolveAlbum(loc, "/photos/2020/trip")
	assert.ErrorIs(t, err, boom)

	loc = newPhotosLocator()
	loc.albumErr = boom
	_, _, err = ResolveAlbum(loc, "/photos/2020/trip")
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeCatalogPath(t *testing.T) {
	assert.Equal(t, "/", NormalizeCatalogPath("C:/"))
	assert.Equal(t, "/a/b", NormalizeCatalogPath("C:/a/b/"))
	assert.Equal(t, "/a/b", NormalizeCatalogPath("/a/b/"))
	assert.Equal(t, "/", NormalizeCatalogPath("/"))
}
