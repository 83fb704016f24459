// Package postgres stores ledger documents in a single GORM-managed table,
// one row per (owner, collection, id).
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"anjo/internal/docs"
	"anjo/internal/log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// document is the row model.
type document struct {
	Owner      string `gorm:"primaryKey;size:128"`
	Collection string `gorm:"primaryKey;size:32"`
	ID         string `gorm:"primaryKey;size:64"`
	Data       string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (document) TableName() string { return "ledger_documents" }

type Store struct {
	db     *gorm.DB
	logger *log.Logger
}

// Open connects to PostgreSQL at dsn (a postgres:// URL) and applies the
// embedded migrations.
func Open(dsn string, l *log.Logger) (*Store, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db, logger: l.WithComponent(log.ComponentRemote)}, nil
}

// NewWithDB wraps an existing connection and creates the table through
// AutoMigrate. Tests use it with the SQLite dialector.
func NewWithDB(db *gorm.DB, l *log.Logger) (*Store, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("auto-migrate documents: %w", err)
	}
	return &Store{db: db, logger: l.WithComponent(log.ComponentRemote)}, nil
}

// RunMigrations applies the SQL migrations to the database at dsn.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) scope(ctx context.Context, owner, collection string) *gorm.DB {
	return s.db.WithContext(ctx).Where("owner = ? AND collection = ?", owner, collection)
}

func (s *Store) List(ctx context.Context, owner, collection string) ([]docs.Document, error) {
	var rows []document
	if err := s.scope(ctx, owner, collection).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]docs.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, docs.Document{ID: r.ID, Data: []byte(r.Data)})
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, owner, collection string, doc docs.Document) error {
	row := document{Owner: owner, Collection: collection, ID: doc.ID, Data: string(doc.Data)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, owner, collection string, doc docs.Document) error {
	res := s.scope(ctx, owner, collection).
		Model(&document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{"data": string(doc.Data), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update %s/%s: %w", collection, doc.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return docs.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, owner, collection, id string) error {
	res := s.scope(ctx, owner, collection).Where("id = ?", id).Delete(&document{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return docs.ErrNotFound
	}
	return nil
}

var (
	_ docs.Store  = (*Store)(nil)
	_ docs.Pinger = (*Store)(nil)
)
