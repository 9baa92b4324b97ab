package internal

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// digiKam's tables, trimmed to the columns this tool touches plus the
// constraints that matter.
const testSchema = `
CREATE TABLE AlbumRoots (
	id INTEGER PRIMARY KEY,
	label TEXT,
	status INTEGER NOT NULL DEFAULT 0,
	type INTEGER NOT NULL DEFAULT 1,
	identifier TEXT,
	specificPath TEXT,
	UNIQUE(identifier, specificPath));
CREATE TABLE Albums (
	id INTEGER PRIMARY KEY,
	albumRoot INTEGER NOT NULL,
	relativePath TEXT NOT NULL,
	UNIQUE(albumRoot, relativePath));
CREATE TABLE Images (
	id INTEGER PRIMARY KEY,
	album INTEGER,
	name TEXT NOT NULL,
	UNIQUE(album, name));
CREATE TABLE Tags (
	id INTEGER PRIMARY KEY,
	pid INTEGER,
	name TEXT NOT NULL,
	UNIQUE(name, pid));
CREATE TABLE ImageTags (
	imageid INTEGER NOT NULL,
	tagid INTEGER NOT NULL,
	UNIQUE(imageid, tagid));
`

// createTestCatalog writes a catalog file with one root at rootPath, albums
// "/" (11) and "/2020/trip" (10), and sunset.png (100) in album 10.
func createTestCatalog(t *testing.T, rootPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digikam4.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	for _, stmt := range []struct {
		query string
		args  []any
	}{
		{`INSERT INTO AlbumRoots (id, label, specificPath) VALUES (1, 'photos', ?)`, []any{rootPath}},
		{`INSERT INTO Albums (id, albumRoot, relativePath) VALUES (10, 1, '/2020/trip')`, nil},
		{`INSERT INTO Albums (id, albumRoot, relativePath) VALUES (11, 1, '/')`, nil},
		{`INSERT INTO Images (id, album, name) VALUES (100, 10, 'sunset.png')`, nil},
	} {
		_, err := db.Exec(stmt.query, stmt.args...)
		require.NoError(t, err, stmt.query)
	}
	return path
}

func openTestCatalog(t *testing.T, path string, dryRun bool) *Catalog {
	t.Helper()
	c, err := OpenCatalog(path, CatalogOptions{DryRun: dryRun, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func countRows(t *testing.T, c *Catalog, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, c.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestOpenCatalog_Missing(t *testing.T) {
	_, err := OpenCatalog(filepath.Join(t.TempDir(), "digikam4.db"), CatalogOptions{Logger: zerolog.Nop()})
	require.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestCatalog_Lookups(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), false)

	rootID, ok, err := c.LookupRoot("/photos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), rootID)

	_, ok, err = c.LookupRoot("/elsewhere")
	require.NoError(t, err)
	assert.False(t, ok)

	albumID, ok, err := c.LookupAlbum(1, "/2020/trip")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(10), albumID)

	imageID, ok, err := c.ResolveImage(10, "sunset.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(100), imageID)

	_, ok, err = c.ResolveImage(11, "sunset.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_ResolveOrCreateTagIdempotent(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), false)

	first, err := c.ResolveOrCreateTag("nature")
	require.NoError(t, err)
	second, err := c.ResolveOrCreateTag("nature")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, countRows(t, c, "SELECT COUNT(*) FROM Tags WHERE name = ?", "nature"))
	assert.Equal(t, 1, countRows(t, c, "SELECT COUNT(*) FROM Tags WHERE name = ? AND pid = 0", "nature"))
}

func TestCatalog_LinkTagToImageIdempotent(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), false)

	tagID, err := c.ResolveOrCreateTag("dusk")
	require.NoError(t, err)

	require.NoError(t, c.LinkTagToImage(100, tagID))
	require.NoError(t, c.LinkTagToImage(100, tagID))

	assert.Equal(t, 1, countRows(t, c, "SELECT COUNT(*) FROM ImageTags WHERE imageid = 100 AND tagid = ?", tagID))
}

func TestCatalog_TagImage(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), false)

	ok, err := c.TagImage("sunset.png", []string{"nature", "dusk", "nature"}, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 2, countRows(t, c, "SELECT COUNT(*) FROM Tags"))
	assert.Equal(t, 2, countRows(t, c, "SELECT COUNT(*) FROM ImageTags WHERE imageid = 100"))

	// Running again changes nothing.
	ok, err = c.TagImage("sunset.png", []string{"nature", "dusk"}, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, countRows(t, c, "SELECT COUNT(*) FROM Tags"))
	assert.Equal(t, 2, countRows(t, c, "SELECT COUNT(*) FROM ImageTags"))
}

func TestCatalog_TagImageUnknownImage(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), false)

	ok, err := c.TagImage("missing.png", []string{"test"}, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 0, countRows(t, c, "SELECT COUNT(*) FROM Tags"))
	assert.Equal(t, 0, countRows(t, c, "SELECT COUNT(*) FROM ImageTags"))
}

func TestCatalog_TagImageStorageFailureKeepsEarlierLinks(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), false)

	// Linking the tag called "broken" fails; everything else works.
	_, err := c.db.Exec(`CREATE TRIGGER refuse_broken BEFORE INSERT ON ImageTags
		WHEN NEW.tagid = (SELECT id FROM Tags WHERE name = 'broken')
		BEGIN SELECT RAISE(ABORT, 'refused'); END`)
	require.NoError(t, err)

	ok, err := c.TagImage("sunset.png", []string{"first", "broken", "never"}, 10)
	require.Error(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, countRows(t, c, `SELECT COUNT(*) FROM ImageTags it JOIN Tags t ON t.id = it.tagid WHERE t.name = 'first'`))
	assert.Equal(t, 0, countRows(t, c, "SELECT COUNT(*) FROM Tags WHERE name = 'never'"))
}

func TestCatalog_DryRunWritesNothing(t *testing.T) {
	c := openTestCatalog(t, createTestCatalog(t, "/photos"), true)
	assert.True(t, c.DryRun())

	ok, err := c.TagImage("sunset.png", []string{"nature"}, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TagImage("missing.png", []string{"nature"}, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 0, countRows(t, c, "SELECT COUNT(*) FROM Tags"))
}
