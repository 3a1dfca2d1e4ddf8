package backend

import (
	"context"
	"fmt"
	"os"

	"aruskas/internal/log"
	"aruskas/internal/source/httpapi"
	"aruskas/internal/source/memory"
	"aruskas/internal/source/sheets"
	"aruskas/internal/source/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case HTTPSource:
		return f.createHTTP(config)
	case SQLiteSource:
		return f.createSQLite(ctx, config)
	case SheetsSource:
		return f.createSheets(ctx, config)
	case MemorySource:
		return f.createMemory(config)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
}

func (f *DefaultFactory) createHTTP(config Config) (*Result, error) {
	cli, err := httpapi.New(httpapi.Options{
		BaseURL:          config.APIBaseURL,
		Token:            config.APIToken,
		Timeout:          config.APITimeout,
		CategoryCacheTTL: config.CategoryCacheTTL,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize http source: %w", err)
	}

	f.logger.Info("Initialized http source", "base_url", config.APIBaseURL, "auth", config.APIToken != "")
	return &Result{Source: cli, Type: HTTPSource}, nil
}

func (f *DefaultFactory) createSQLite(ctx context.Context, config Config) (*Result, error) {
	store, err := sqlite.Open(ctx, config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite source: %w", err)
	}

	f.logger.Info("Initialized SQLite source", "db_path", config.SQLiteDBPath)
	return &Result{Source: store, Type: SQLiteSource, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, config Config) (*Result, error) {
	credentials := []byte(config.GoogleServiceAccountJSON)
	if len(credentials) == 0 {
		b, err := os.ReadFile(config.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	}

	cli, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:     config.GoogleSpreadsheetID,
		TransactionsSheet: config.GoogleTransactionsSheet,
		CategoriesSheet:   config.GoogleCategoriesSheet,
		CredentialsJSON:   credentials,
		CacheTTL:          config.CategoryCacheTTL,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
	}

	f.logger.Info("Initialized Google Sheets source", "sheet", config.GoogleTransactionsSheet)
	return &Result{Source: cli, Type: SheetsSource}, nil
}

func (f *DefaultFactory) createMemory(config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory source: %w", err)
	}

	f.logger.Info("Initialized memory source", "data_directory", dataDir)
	return &Result{Source: store, Type: MemorySource}, nil
}
