package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rs/zerolog"
)

const (
	queryFetchRootID  = "SELECT id FROM AlbumRoots WHERE specificPath = ?"
	queryFetchAlbumID = "SELECT id FROM Albums WHERE relativePath = ? AND albumRoot = ?"
	queryFetchImageID = "SELECT id FROM Images WHERE album = ? AND name = ?"
	queryFetchTagID   = "SELECT id FROM Tags WHERE name = ?"
	queryCreateTag    = "INSERT INTO Tags (pid, name) VALUES (0, ?)"
	queryTagImage     = "INSERT OR IGNORE INTO ImageTags (imageid, tagid) VALUES (?, ?)"
)

// Catalog is a digiKam catalog database. It only ever writes Tags and
// ImageTags rows.
type Catalog struct {
	db     *sql.DB
	path   string
	dryRun bool
	log    zerolog.Logger
}

// CatalogOptions configures OpenCatalog.
type CatalogOptions struct {
	// DryRun opens the database read-only and turns TagImage into a lookup.
	DryRun bool
	Logger zerolog.Logger
}

// OpenCatalog opens an existing catalog file. A missing file is
// ErrCatalogNotFound; SQLite would otherwise create an empty database.
func OpenCatalog(path string, opts CatalogOptions) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrCatalogNotFound)
		}
		return nil, fmt.Errorf("failed to stat catalog: %w", err)
	}

	dsn := "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)"
	if opts.DryRun {
		dsn += "&mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// One shared connection for the whole run.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog %s: %w", path, err)
	}

	return &Catalog{db: db, path: path, dryRun: opts.DryRun, log: opts.Logger}, nil
}

// NewCatalog wraps an already opened database handle.
func NewCatalog(db *sql.DB, logger zerolog.Logger) *Catalog {
	return &Catalog{db: db, log: logger}
}

func (c *Catalog) Path() string { return c.path }

func (c *Catalog) DryRun() bool { return c.dryRun }

func (c *Catalog) Close() error {
	return c.db.Close()
}

// queryID runs a single-column id query. A missing row is (0, false, nil).
func (c *Catalog) queryID(query string, args ...any) (int64, bool, error) {
	var id int64
	err := c.db.QueryRow(query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// LookupRoot finds the album root whose path is exactly specificPath.
func (c *Catalog) LookupRoot(specificPath string) (int64, bool, error) {
	id, ok, err := c.queryID(queryFetchRootID, specificPath)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch album root %q: %w", specificPath, err)
	}
	return id, ok, nil
}

// LookupAlbum finds the album at relativePath under root.
func (c *Catalog) LookupAlbum(rootID int64, relativePath string) (int64, bool, error) {
	id, ok, err := c.queryID(queryFetchAlbumID, relativePath, rootID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch album %q in root %d: %w", relativePath, rootID, err)
	}
	return id, ok, nil
}

func (c *Catalog) ResolveImage(albumID int64, name string) (int64, bool, error) {
	id, ok, err := c.queryID(queryFetchImageID, albumID, name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch image %q: %w", name, err)
	}
	return id, ok, nil
}

// ResolveOrCreateTag returns the id of the top-level tag called name,
// creating it first when needed. The id is read back with a second select
// rather than taken from the insert.
func (c *Catalog) ResolveOrCreateTag(name string) (int64, error) {
	id, ok, err := c.queryID(queryFetchTagID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tag %q: %w", name, err)
	}
	if ok {
		return id, nil
	}

	if _, err := c.db.Exec(queryCreateTag, name); err != nil {
		return 0, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	c.log.Debug().Str("tag", name).Msg("created tag")

	id, ok, err = c.queryID(queryFetchTagID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tag %q: %w", name, err)
	}
	if !ok {
		return 0, fmt.Errorf("tag %q missing after insert", name)
	}
	return id, nil
}

// LinkTagToImage tags an image. Linking an existing pair is a no-op.
func (c *Catalog) LinkTagToImage(imageID, tagID int64) error {
	if _, err := c.db.Exec(queryTagImage, imageID, tagID); err != nil {
		return fmt.Errorf("failed to tag image %d with tag %d: %w", imageID, tagID, err)
	}
	return nil
}

// TagImage applies tags to the image called name in album albumID.
// It returns false without side effects when the catalog does not know the
// image. A storage error stops at the failing tag; links written before it
// are kept.
func (c *Catalog) TagImage(name string, tags []string, albumID int64) (bool, error) {
	imageID, ok, err := c.ResolveImage(albumID, name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if c.dryRun {
		return true, nil
	}

	for _, tag := range tags {
		tagID, err := c.ResolveOrCreateTag(tag)
		if err != nil {
			return false, err
		}
		if err := c.LinkTagToImage(imageID, tagID); err != nil {
			return false, err
		}
	}
	return true, nil
}
