package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/pkg/logger"
)

// PostgresRepository stores each collection as one JSONB row.
type PostgresRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostgresRepository ensures the collections table exists on the pool
func NewPostgresRepository(ctx context.Context, db *pgxpool.Pool) (*PostgresRepository, error) {
	ddl := `CREATE TABLE IF NOT EXISTS ` + collectionsTable + ` (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}
	return &PostgresRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (r *PostgresRepository) Load(ctx context.Context, name string) ([]models.Record, error) {
	query, args, err := r.sb.Select("payload::text").
		From(collectionsTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building load collection SQL")
		return nil, fmt.Errorf("failed to build load query: %w", err)
	}

	var payload string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Record{}, nil
		}
		logger.Error().Err(err).Str("collection", name).Msg("Error loading collection from postgres")
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return decodeRecords([]byte(payload))
}

func (r *PostgresRepository) Save(ctx context.Context, name string, records []models.Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	query, args, err := r.sb.Insert(collectionsTable).
		Columns("name", "payload").
		Values(name, squirrel.Expr("?::jsonb", string(data))).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building save collection SQL")
		return fmt.Errorf("failed to build save query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		logger.Error().Err(err).Str("collection", name).Msg("Error saving collection to postgres")
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

// Close releases the pool
func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}
