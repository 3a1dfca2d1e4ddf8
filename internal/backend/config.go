package backend

import (
	"errors"
	"fmt"

	"aruskas/internal/config"
)

// FromAppConfig converts the application config to a source config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := Type(appConfig.DataSource)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s", appConfig.DataSource)
	}

	return Config{
		Type: t,

		APIBaseURL:       appConfig.APIBaseURL,
		APIToken:         appConfig.APIToken,
		APITimeout:       appConfig.APITimeout,
		CategoryCacheTTL: appConfig.CategoryCacheTTL,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleTransactionsSheet:  appConfig.GoogleTransactionsSheet,
		GoogleCategoriesSheet:    appConfig.GoogleCategoriesSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Validate checks the settings the selected source needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Type)
	}

	switch c.Type {
	case HTTPSource:
		if c.APIBaseURL == "" {
			return errors.New("API base URL is required for http source")
		}
	case SQLiteSource:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("either GoogleServiceAccountJSON or GoogleServiceAccountFile must be provided for sheets source")
		}
	case MemorySource:
		// DataDirectory defaults to "data"; missing seed files fall back to built-in fixtures.
	}

	return nil
}

// Types returns all valid source types.
func Types() []Type {
	return []Type{HTTPSource, SQLiteSource, SheetsSource, MemorySource}
}
