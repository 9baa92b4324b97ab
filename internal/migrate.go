package internal

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
)

// CatalogStore is the part of the catalog a migration needs.
type CatalogStore interface {
	AlbumLocator
	TagImage(name string, tags []string, albumID int64) (bool, error)
}

// DirStatus is the outcome of one directory.
type DirStatus string

const (
	DirProcessed  DirStatus = "processed"
	DirNoSidecar  DirStatus = "no_sidecar"
	DirUnresolved DirStatus = "unresolved"
	DirMalformed  DirStatus = "malformed"
	DirFailed     DirStatus = "failed"
)

// DirResult reports what happened in one directory. Tagged and Skipped are
// the per-directory counters; records without tags count in neither.
type DirResult struct {
	Dir              string
	Status           DirStatus
	AlbumID          int64
	Tagged           int
	Skipped          int
	UnresolvedTokens []string
	Err              error
}

// Summary is the line printed once a directory is done.
func (r DirResult) Summary() string {
	switch r.Status {
	case DirNoSidecar:
		return fmt.Sprintf("No sidecar found in %s. Continuing.", r.Dir)
	case DirUnresolved:
		return fmt.Sprintf("%s is not part of the digiKam catalog. Skipping its tags.", r.Dir)
	case DirFailed:
		return fmt.Sprintf("Could not process %s: %v", r.Dir, r.Err)
	}

	report := fmt.Sprintf("Done tagging in %s. %d items tagged.", r.Dir, r.Tagged)
	if r.Skipped > 0 {
		report += fmt.Sprintf(" %d items were skipped, because they don't exist in digiKam's database.", r.Skipped)
	}
	if r.Status == DirMalformed {
		report += fmt.Sprintf(" Stopped early: %v", r.Err)
	}
	return report
}

// RunStats totals a whole run.
type RunStats struct {
	Directories int
	NoSidecar   int
	Unresolved  int
	Malformed   int
	Failed      int
	Tagged      int
	Skipped     int
	Tokens      int
}

func (rs *RunStats) add(res DirResult) {
	rs.Directories++
	rs.Tagged += res.Tagged
	rs.Skipped += res.Skipped
	rs.Tokens += len(res.UnresolvedTokens)
	switch res.Status {
	case DirNoSidecar:
		rs.NoSidecar++
	case DirUnresolved:
		rs.Unresolved++
	case DirMalformed:
		rs.Malformed++
	case DirFailed:
		rs.Failed++
	}
}

// Migrator copies sidecar tags into a catalog, one directory at a time.
type Migrator struct {
	Store     CatalogStore
	Config    *Config
	Recursive bool
	Log       zerolog.Logger
	Errors    *ErrorStats

	// OnDirectory is called after each directory, in visiting order.
	OnDirectory func(DirResult)

	stats RunStats
}

func NewMigrator(store CatalogStore, cfg *Config, recursive bool, logger zerolog.Logger) *Migrator {
	return &Migrator{
		Store:     store,
		Config:    cfg,
		Recursive: recursive,
		Log:       logger,
		Errors:    NewErrorStats(),
	}
}

// Run processes dir and, when recursive, every subdirectory depth-first.
func (m *Migrator) Run(dir string) RunStats {
	m.walk(dir)
	return m.stats
}

func (m *Migrator) Stats() RunStats {
	return m.stats
}

func (m *Migrator) walk(dir string) {
	res := m.ProcessDir(dir)
	m.stats.add(res)
	if m.OnDirectory != nil {
		m.OnDirectory(res)
	}

	if !m.Recursive {
		return
	}
	subdirs, err := ListSubdirs(dir, m.Config.SkipExtensions)
	if err != nil {
		m.Log.Error().Err(err).Str("dir", dir).Msg("cannot list subdirectories")
		m.Errors.Add(&ProcessError{
			Path:        dir,
			Category:    ErrorCategoryIO,
			Severity:    ErrorSeverityError,
			OriginalErr: err,
			Suggestion:  "Check permissions on the photo folders",
		})
		return
	}
	for _, sub := range subdirs {
		m.walk(sub)
	}
}

// ProcessDir migrates the tags of a single directory.
func (m *Migrator) ProcessDir(dir string) DirResult {
	res := DirResult{Dir: dir}
	log := m.Log.With().Str("dir", dir).Logger()

	sc, err := LoadSidecar(dir, m.Config.SidecarName)
	if errors.Is(err, ErrSidecarNotFound) {
		log.Debug().Msg("no sidecar in directory")
		res.Status = DirNoSidecar
		return res
	}
	if err != nil {
		log.Error().Err(err).Msg("cannot read sidecar")
		m.Errors.Add(CategorizeError(dir, err))
		res.Status, res.Err = DirFailed, err
		return res
	}

	albumID, ok, err := ResolveAlbum(m.Store, dir)
	if err != nil {
		log.Error().Err(err).Msg("album lookup failed")
		m.Errors.Add(CategorizeError(dir, err))
		res.Status, res.Err = DirUnresolved, err
		return res
	}
	if !ok {
		log.Warn().Msg("directory is not known to the catalog")
		m.Errors.Warn(dir, ErrorCategoryUnresolved, errors.New("no matching album in catalog"))
		res.Status = DirUnresolved
		return res
	}
	res.AlbumID = albumID
	log.Debug().Int64("album_id", albumID).Msg("resolved album")

	var idx *TokenIndex
	if m.Config.MetaTags {
		idx = BuildTokenIndex(sc.Lines())
		log.Debug().Int("tokens", idx.Len()).Interface("table", idx.Names()).Msg("built meta token table")
		for _, c := range idx.Collisions() {
			log.Warn().Str("token", c.Token).Str("previous", c.Previous).Str("current", c.Current).
				Msg("token defined twice in sidecar, keeping the later name")
		}
	}

	opts := ExtractOptions{MetaPrefix: m.Config.MetaPrefix}
	stats, err := WalkRecords(sc.Lines(), idx, opts, func(rec Record) error {
		tagged, err := m.Store.TagImage(rec.ImageName, rec.Tags, albumID)
		switch {
		case err != nil:
			res.Skipped++
			log.Error().Err(err).Str("image", rec.ImageName).Msg("failed to tag image")
			m.Errors.Add(CategorizeError(filepath.Join(dir, rec.ImageName), err))
		case !tagged:
			res.Skipped++
			log.Warn().Str("image", rec.ImageName).Msg("image not in catalog")
			m.Errors.Warn(filepath.Join(dir, rec.ImageName), ErrorCategoryUnknown, errors.New("image not in catalog"))
		default:
			res.Tagged++
			log.Debug().Str("image", rec.ImageName).Strs("tags", rec.Tags).Msg("tagged image")
		}
		return nil
	})

	res.UnresolvedTokens = stats.UnresolvedTokens
	for _, token := range stats.UnresolvedTokens {
		log.Warn().Str("token", token).Msg("token not defined in sidecar")
		m.Errors.Warn(dir, ErrorCategoryToken, fmt.Errorf("unresolved token %s", token))
	}

	res.Status = DirProcessed
	if err != nil {
		log.Error().Err(err).Msg("aborting directory")
		m.Errors.Add(CategorizeError(dir, err))
		res.Status, res.Err = DirMalformed, err
	}
	return res
}
