package backend

import (
	"errors"
	"fmt"
	"time"

	"anjo/internal/config"
)

// Config holds what the factory needs to build the stores.
type Config struct {
	Local  LocalType
	Remote RemoteType

	SQLiteDBPath string
	DatabaseURL  string

	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	ReadRetries     int
	MutationRetries int
	RetryBaseDelay  time.Duration
	CacheSize       int
	CacheTTL        time.Duration
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	c := Config{
		Local:  LocalType(appConfig.LocalBackend),
		Remote: RemoteType(appConfig.RemoteBackend),

		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		ReadRetries:     appConfig.ReadRetries,
		MutationRetries: appConfig.MutationRetries,
		RetryBaseDelay:  appConfig.RetryBaseDelay,
		CacheSize:       appConfig.CacheSize,
		CacheTTL:        appConfig.CacheTTL,
	}
	return c, c.Validate()
}

// Validate reports every inconsistency of the backend configuration.
func (c Config) Validate() error {
	var errs []error
	if !c.Local.IsValid() {
		errs = append(errs, fmt.Errorf("invalid local backend: %q", c.Local))
	}
	if !c.Remote.IsValid() {
		errs = append(errs, fmt.Errorf("invalid remote backend: %q", c.Remote))
	}
	if c.Local == LocalSQLite && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
	}
	switch c.Remote {
	case RemotePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres backend"))
		}
	case RemoteSheets:
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, errors.New("Google Spreadsheet ID is required for sheets backend"))
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errs = append(errs, errors.New("either service account JSON or file must be provided for sheets backend"))
		}
	}
	return errors.Join(errs...)
}
