package backend

import (
	"context"

	"anjo/internal/store"
	"anjo/internal/store/remote"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result holds both stores a server needs: the guest store and the
// per-owner remote backend.
type Result struct {
	Local   store.LedgerStore
	Remote  *remote.Backend
	Cleanup CleanupFunc
}

// Factory creates the stores based on configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// LocalType is the durable KV implementation behind the guest store.
type LocalType string

const (
	LocalSQLite LocalType = "sqlite"
	LocalMemory LocalType = "memory"
)

func (t LocalType) String() string { return string(t) }

func (t LocalType) IsValid() bool {
	switch t {
	case LocalSQLite, LocalMemory:
		return true
	}
	return false
}

// RemoteType is the document store behind authenticated ledgers.
type RemoteType string

const (
	RemotePostgres RemoteType = "postgres"
	RemoteSheets   RemoteType = "sheets"
	RemoteMemory   RemoteType = "memory"
)

func (t RemoteType) String() string { return string(t) }

func (t RemoteType) IsValid() bool {
	switch t {
	case RemotePostgres, RemoteSheets, RemoteMemory:
		return true
	}
	return false
}

// SelectMode picks the persistence mode of a session: remote when the
// caller is authenticated, local otherwise.
func SelectMode(authenticated bool) store.Mode {
	if authenticated {
		return store.ModeRemote
	}
	return store.ModeLocal
}

// Resolve returns the store serving owner. An empty owner means a guest.
func (r *Result) Resolve(owner string) store.LedgerStore {
	if SelectMode(owner != "") == store.ModeRemote {
		return r.Remote.For(owner)
	}
	return r.Local
}
