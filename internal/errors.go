package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrSidecarNotFound means the directory has no sidecar file. Not a failure.
	ErrSidecarNotFound = errors.New("sidecar not found")
	// ErrMalformedSidecar means a record header was expected but not found.
	ErrMalformedSidecar = errors.New("malformed sidecar")
	// ErrCatalogNotFound means the catalog database file does not exist.
	ErrCatalogNotFound = errors.New("catalog not found")
)

// ErrorCategory represents the type of error encountered
type ErrorCategory string

const (
	ErrorCategoryMalformed   ErrorCategory = "malformed_sidecar"   // Header expected, something else found
	ErrorCategoryUnresolved  ErrorCategory = "unresolved_album"    // Directory unknown to the catalog
	ErrorCategoryUnknown     ErrorCategory = "unknown_image"       // Image tagged in sidecar, absent in catalog
	ErrorCategoryToken       ErrorCategory = "unresolved_token"    // Album/face token missing from the index
	ErrorCategoryStorage     ErrorCategory = "storage_error"       // Query or insert failed
	ErrorCategoryUnavailable ErrorCategory = "catalog_unavailable" // Catalog could not be opened
	ErrorCategoryIO          ErrorCategory = "io_error"            // Sidecar or folder unreadable
)

// ErrorSeverity indicates how critical the error is
type ErrorSeverity string

const (
	ErrorSeverityCritical ErrorSeverity = "critical" // Run cannot continue
	ErrorSeverityError    ErrorSeverity = "error"    // Directory or image lost its tags
	ErrorSeverityWarning  ErrorSeverity = "warning"  // Expected gaps in the data
)

// ProcessError represents a categorized error during directory processing
type ProcessError struct {
	Path        string
	Category    ErrorCategory
	Severity    ErrorSeverity
	OriginalErr error
	Context     map[string]string
	Suggestion  string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("[%s/%s] %s: %v", e.Severity, e.Category, e.Path, e.OriginalErr)
}

func (e *ProcessError) Unwrap() error {
	return e.OriginalErr
}

// CategorizeError classifies err and returns a ProcessError with category and severity.
func CategorizeError(path string, err error) *ProcessError {
	if err == nil {
		return nil
	}

	procErr := &ProcessError{
		Path:        path,
		OriginalErr: err,
		Context:     make(map[string]string),
	}

	switch {
	case errors.Is(err, ErrCatalogNotFound):
		procErr.Category = ErrorCategoryUnavailable
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Point --db at the directory containing digikam4.db"

	case errors.Is(err, ErrMalformedSidecar):
		procErr.Category = ErrorCategoryMalformed
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Inspect the sidecar with 'kahla inspect'; tags after the bad line were not applied"

	case errors.Is(err, fs.ErrPermission):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Check permissions on the photo folders"

	case strings.Contains(strings.ToLower(err.Error()), "database is locked"):
		procErr.Category = ErrorCategoryStorage
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Close digiKam before migrating; it locks the catalog while running"

	default:
		procErr.Category = ErrorCategoryStorage
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Unexpected catalog error - check the log file for details"
	}

	return procErr
}

// ErrorStats tracks error statistics during a run
type ErrorStats struct {
	Total      int
	Critical   int
	Errors     int
	Warnings   int
	ByCategory map[ErrorCategory]int
	LastErrors []*ProcessError
}

func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ByCategory: make(map[ErrorCategory]int),
		LastErrors: make([]*ProcessError, 0, 5),
	}
}

func (s *ErrorStats) Add(err *ProcessError) {
	s.Total++
	s.ByCategory[err.Category]++

	switch err.Severity {
	case ErrorSeverityCritical:
		s.Critical++
	case ErrorSeverityError:
		s.Errors++
	case ErrorSeverityWarning:
		s.Warnings++
	}

	// Keep last 5 errors
	if len(s.LastErrors) >= 5 {
		s.LastErrors = s.LastErrors[1:]
	}
	s.LastErrors = append(s.LastErrors, err)
}

// Warn records an expected gap (unresolved directory, unknown image, missing token).
func (s *ErrorStats) Warn(path string, category ErrorCategory, err error) {
	s.Add(&ProcessError{
		Path:        path,
		Category:    category,
		Severity:    ErrorSeverityWarning,
		OriginalErr: err,
		Suggestion:  suggestionFor(category),
	})
}

func suggestionFor(category ErrorCategory) string {
	switch category {
	case ErrorCategoryUnresolved:
		return "Add the folder to a digiKam collection and let it scan before migrating"
	case ErrorCategoryUnknown:
		return "Rescan the album in digiKam so it indexes the image"
	case ErrorCategoryToken:
		return "The sidecar references an album or face that it never defines"
	}
	return ""
}

// GenerateReport creates a human-readable error report
func (s *ErrorStats) GenerateReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("\nMigration encountered %d problems:\n\n", s.Total))

	if s.Critical > 0 {
		report.WriteString(fmt.Sprintf("  Critical: %d (catalog-level issues)\n", s.Critical))
	}
	if s.Errors > 0 {
		report.WriteString(fmt.Sprintf("  Errors:   %d (directory or image lost tags)\n", s.Errors))
	}
	if s.Warnings > 0 {
		report.WriteString(fmt.Sprintf("  Warnings: %d (expected gaps)\n", s.Warnings))
	}

	report.WriteString("\nProblem categories:\n")
	for cat, count := range s.ByCategory {
		report.WriteString(fmt.Sprintf("  - %s: %d\n", cat, count))
	}

	report.WriteString("\nRecent problems:\n")
	for i, err := range s.LastErrors {
		report.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, err.Path))
		report.WriteString(fmt.Sprintf("   Category: %s | Severity: %s\n", err.Category, err.Severity))
		report.WriteString(fmt.Sprintf("   Error: %v\n", err.OriginalErr))
		if err.Suggestion != "" {
			report.WriteString(fmt.Sprintf("   Suggestion: %s\n", err.Suggestion))
		}
	}

	return report.String()
}
