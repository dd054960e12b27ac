package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/pkg/logger"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const collectionsTable = "collections"

// upsertSuffix is valid for both SQLite and PostgreSQL
const upsertSuffix = "ON CONFLICT (name) DO UPDATE SET payload = excluded.payload"

// SQLiteRepository stores each collection as one JSON payload row.
type SQLiteRepository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// NewSQLiteRepository opens (creating if needed) the database at path
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single connection serializes writers inside the driver
	db.SetMaxOpenConns(1)

	ddl := `CREATE TABLE IF NOT EXISTS ` + collectionsTable + ` (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}

	return &SQLiteRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context, name string) ([]models.Record, error) {
	query, args, err := r.sb.Select("payload").
		From(collectionsTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build load query: %w", err)
	}

	var payload string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Record{}, nil
		}
		logger.Error().Err(err).Str("collection", name).Msg("Error loading collection from sqlite")
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return decodeRecords([]byte(payload))
}

func (r *SQLiteRepository) Save(ctx context.Context, name string, records []models.Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	query, args, err := r.sb.Insert(collectionsTable).
		Columns("name", "payload").
		Values(name, string(data)).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error().Err(err).Str("collection", name).Msg("Error saving collection to sqlite")
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
