package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"petitiondesk/domain/core"
	apperrors "petitiondesk/internal/errors"
	"petitiondesk/ports"
)

// SQL stores blobs in a model_blobs table. Works against sqlite3 and postgres.
type SQL struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ ports.BlobStore = (*SQL)(nil)

// OpenSQL connects with driver ("sqlite3" or "postgres") and ensures the table exists
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, apperrors.StorageError(fmt.Sprintf("failed to connect to %s", driver), err)
	}
	if driver == "sqlite3" {
		// sqlite serialises writers; one connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	}
	store := NewSQL(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQL wraps an existing connection. Call Migrate before first use.
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db, now: time.Now}
}

// Migrate creates the blob table if it is missing
func (s *SQL) Migrate(ctx context.Context) error {
	dataType := "BLOB"
	if s.db.DriverName() == "postgres" {
		dataType = "BYTEA"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS model_blobs (
		name TEXT PRIMARY KEY,
		data %s NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`, dataType)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return apperrors.StorageError("failed to create model_blobs table", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *SQL) Close() error {
	return s.db.Close()
}

// Put upserts name in a single statement
func (s *SQL) Put(ctx context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	query := s.db.Rebind(`INSERT INTO model_blobs (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, name, data, s.now().UTC()); err != nil {
		return apperrors.StorageError(fmt.Sprintf("failed to save blob %s", name), err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.GetContext(ctx, &data, s.db.Rebind(`SELECT data FROM model_blobs WHERE name = ?`), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("blob", name)
		}
		return nil, apperrors.StorageError(fmt.Sprintf("failed to get blob %s", name), err)
	}
	return data, nil
}

func (s *SQL) Exists(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM model_blobs WHERE name = ?`), name)
	if err != nil {
		return false, apperrors.StorageError(fmt.Sprintf("failed to check blob %s", name), err)
	}
	return count > 0, nil
}

func (s *SQL) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM model_blobs WHERE name = ?`), name); err != nil {
		return apperrors.StorageError(fmt.Sprintf("failed to delete blob %s", name), err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM model_blobs ORDER BY name`); err != nil {
		return nil, apperrors.StorageError("failed to list blobs", err)
	}
	return names, nil
}
