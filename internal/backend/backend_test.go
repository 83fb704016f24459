package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"anjo/internal/config"
	"anjo/internal/log"
	"anjo/internal/store"
)

func TestSelectMode(t *testing.T) {
	if got := SelectMode(true); got != store.ModeRemote {
		t.Fatalf("SelectMode(true) = %s, want remote", got)
	}
	if got := SelectMode(false); got != store.ModeLocal {
		t.Fatalf("SelectMode(false) = %s, want local", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "memory both",
			config: Config{Local: LocalMemory, Remote: RemoteMemory},
		},
		{
			name:    "sqlite without path",
			config:  Config{Local: LocalSQLite, Remote: RemoteMemory},
			wantErr: "SQLite database path",
		},
		{
			name:    "postgres without url",
			config:  Config{Local: LocalMemory, Remote: RemotePostgres},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "sheets without credentials",
			config:  Config{Local: LocalMemory, Remote: RemoteSheets, GoogleSpreadsheetID: "abc"},
			wantErr: "service account",
		},
		{
			name:    "unknown types",
			config:  Config{Local: "redis", Remote: "mongo"},
			wantErr: "invalid remote backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	c, err := FromAppConfig(&config.Config{
		LocalBackend:    "memory",
		RemoteBackend:   "memory",
		ReadRetries:     2,
		MutationRetries: 3,
		RetryBaseDelay:  time.Second,
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if c.MutationRetries != 3 || c.Remote != RemoteMemory {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestFactoryResolvesStores(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(log.Discard()).Create(ctx, Config{
		Local:        LocalSQLite,
		SQLiteDBPath: filepath.Join(t.TempDir(), "guest.db"),
		Remote:       RemoteMemory,
		CacheSize:    16,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup: %v", err)
		}
	}()

	if got := res.Resolve("").Mode(); got != store.ModeLocal {
		t.Fatalf("guest resolved to %s", got)
	}
	if got := res.Resolve("user-1").Mode(); got != store.ModeRemote {
		t.Fatalf("owner resolved to %s", got)
	}
	accounts, err := res.Resolve("").ListAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("guest accounts = %v, %v", accounts, err)
	}
	accounts, err = res.Resolve("user-1").ListAccounts(ctx)
	if err != nil || len(accounts) != 0 {
		t.Fatalf("remote accounts = %v, %v", accounts, err)
	}
}
