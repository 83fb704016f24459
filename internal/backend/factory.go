package backend

import (
	"context"
	"errors"
	"fmt"

	"anjo/internal/docs"
	gdocs "anjo/internal/docs/google"
	"anjo/internal/docs/memory"
	"anjo/internal/docs/postgres"
	"anjo/internal/log"
	"anjo/internal/storage"
	"anjo/internal/store"
	"anjo/internal/store/local"
	"anjo/internal/store/remote"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds the guest store and the remote backend. On failure every
// resource opened so far is released.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	localStore, closeLocal, err := f.createLocal(config)
	if err != nil {
		return nil, err
	}
	if closeLocal != nil {
		cleanups = append(cleanups, closeLocal)
	}

	ds, closeRemote, err := f.createDocs(ctx, config)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	if closeRemote != nil {
		cleanups = append(cleanups, closeRemote)
	}

	rb := remote.NewBackend(ds, remote.Options{
		ReadRetries:     config.ReadRetries,
		MutationRetries: config.MutationRetries,
		BaseDelay:       config.RetryBaseDelay,
		CacheSize:       config.CacheSize,
		CacheTTL:        config.CacheTTL,
	}, f.logger)

	f.logger.Info("Initialized backends",
		"local", config.Local.String(),
		"remote", config.Remote.String())

	return &Result{Local: localStore, Remote: rb, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) createLocal(config Config) (store.LedgerStore, CleanupFunc, error) {
	switch config.Local {
	case LocalSQLite:
		kv, err := storage.NewSQLiteKV(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite guest store", "db_path", config.SQLiteDBPath)
		return local.New(kv, f.logger), kv.Close, nil
	case LocalMemory:
		return local.New(storage.NewMemoryKV(), f.logger), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported local backend: %s", config.Local)
}

func (f *DefaultFactory) createDocs(ctx context.Context, config Config) (docs.Store, CleanupFunc, error) {
	switch config.Remote {
	case RemotePostgres:
		s, err := postgres.Open(config.DatabaseURL, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres document store: %w", err)
		}
		return s, s.Close, nil
	case RemoteSheets:
		c, err := gdocs.New(ctx, gdocs.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets document store")
		return c, nil, nil
	case RemoteMemory:
		f.logger.Warn("Remote data is kept in memory and lost on restart")
		return memory.New(), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported remote backend: %s", config.Remote)
}
