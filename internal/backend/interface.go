package backend

import (
	"context"
	"time"

	"aruskas/internal/source"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// Result contains the source instance and an optional cleanup function.
type Result struct {
	Source  source.Source
	Type    Type
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates data sources based on configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds what any of the sources needs to be built.
type Config struct {
	Type Type

	// REST backend
	APIBaseURL       string
	APIToken         string
	APITimeout       time.Duration
	CategoryCacheTTL time.Duration

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory
	DataDirectory string
}

// Type names a data source implementation.
type Type string

const (
	HTTPSource   Type = "http"
	SQLiteSource Type = "sqlite"
	SheetsSource Type = "sheets"
	MemorySource Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case HTTPSource, SQLiteSource, SheetsSource, MemorySource:
		return true
	default:
		return false
	}
}
