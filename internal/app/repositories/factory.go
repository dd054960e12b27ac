package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend names accepted by New
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Options selects and configures a backend
type Options struct {
	Backend    string
	DataDir    string
	SQLitePath string
	Pool       *pgxpool.Pool // required for postgres
	S3         S3Options
}

// New creates a CollectionRepository for the configured backend.
func New(ctx context.Context, opts Options) (CollectionRepository, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileRepository(opts.DataDir)
	case BackendMemory:
		return NewMemoryRepository(), nil
	case BackendSQLite:
		return NewSQLiteRepository(ctx, opts.SQLitePath)
	case BackendPostgres:
		if opts.Pool == nil {
			return nil, fmt.Errorf("postgres backend requires a connection pool")
		}
		return NewPostgresRepository(ctx, opts.Pool)
	case BackendS3:
		return NewS3Repository(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q (supported: file, memory, sqlite, postgres, s3)", opts.Backend)
	}
}
