package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Session appends one JSON event per processed directory to a manifest file.
type Session struct {
	ID           string
	ImageDir     string
	CatalogPath  string
	ManifestFile *os.File
}

// ManifestEvent represents a single event in the manifest log
type ManifestEvent struct {
	Event string `json:"event"`
	Ts    string `json:"ts"`
	Dir   string `json:"dir,omitempty"`

	// Directory fields
	Status     string   `json:"status,omitempty"`
	AlbumID    int64    `json:"album_id,omitempty"`
	Tagged     int      `json:"tagged,omitempty"`
	Skipped    int      `json:"skipped,omitempty"`
	Unresolved []string `json:"unresolved_tokens,omitempty"`
	Error      string   `json:"error,omitempty"`

	ErrorCategory string `json:"error_category,omitempty"`

	// Run start/end fields
	Catalog     string `json:"catalog,omitempty"`
	Recursive   bool   `json:"recursive,omitempty"`
	MetaTags    bool   `json:"meta_tags,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
	Directories int    `json:"directories,omitempty"`
	TotalTagged int    `json:"total_tagged,omitempty"`
	TotalSkip   int    `json:"total_skipped,omitempty"`
}

// NewSession opens the manifest at manifestPath for appending.
func NewSession(manifestPath, imageDir, catalogPath string) (*Session, error) {
	f, err := os.OpenFile(manifestPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}

	return &Session{
		ID:           time.Now().Format("2006-01-02-150405"),
		ImageDir:     imageDir,
		CatalogPath:  catalogPath,
		ManifestFile: f,
	}, nil
}

// LogRunStart writes the run start event to manifest
func (s *Session) LogRunStart(recursive, metaTags, dryRun bool) error {
	return s.writeEvent(ManifestEvent{
		Event:     "run_start",
		Ts:        now(),
		Dir:       s.ImageDir,
		Catalog:   s.CatalogPath,
		Recursive: recursive,
		MetaTags:  metaTags,
		DryRun:    dryRun,
	})
}

// LogDirectory records the outcome of one directory.
func (s *Session) LogDirectory(res DirResult) error {
	event := ManifestEvent{
		Event:      "directory",
		Ts:         now(),
		Dir:        res.Dir,
		Status:     string(res.Status),
		AlbumID:    res.AlbumID,
		Tagged:     res.Tagged,
		Skipped:    res.Skipped,
		Unresolved: res.UnresolvedTokens,
	}
	if res.Err != nil {
		event.Error = res.Err.Error()
		event.ErrorCategory = string(CategorizeError(res.Dir, res.Err).Category)
	}
	return s.writeEvent(event)
}

// LogRunEnd writes the run end event to manifest
func (s *Session) LogRunEnd(stats RunStats) error {
	return s.writeEvent(ManifestEvent{
		Event:       "run_end",
		Ts:          now(),
		Directories: stats.Directories,
		TotalTagged: stats.Tagged,
		TotalSkip:   stats.Skipped,
	})
}

func (s *Session) Close() error {
	if s.ManifestFile != nil {
		return s.ManifestFile.Close()
	}
	return nil
}

func (s *Session) writeEvent(event ManifestEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := s.ManifestFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to manifest: %w", err)
	}

	return s.ManifestFile.Sync()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
