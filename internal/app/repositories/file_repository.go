package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/pkg/filestorage"
)

// FileRepository keeps each collection in <dir>/<name>.json.
//
// Layout:
//
//	data_dir/
//	  alunos.json      # JSON array of records
//	  sequencias.json  # one-element array: {"alunos": 3, ...}
type FileRepository struct {
	storage *filestorage.LocalStorage
}

// NewFileRepository creates a FileRepository rooted at dir
func NewFileRepository(dir string) (*FileRepository, error) {
	storage, err := filestorage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return &FileRepository{storage: storage}, nil
}

func fileName(name string) string {
	return name + ".json"
}

// Load reads the collection file
func (r *FileRepository) Load(_ context.Context, name string) ([]models.Record, error) {
	data, err := r.storage.ReadFile(fileName(name))
	if err != nil {
		if errors.Is(err, filestorage.ErrNotExist) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return records, nil
}

// Save atomically replaces the collection file
func (r *FileRepository) Save(_ context.Context, name string, records []models.Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := r.storage.WriteFileAtomic(fileName(name), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

// Close is a no-op for files
func (r *FileRepository) Close() error {
	return nil
}
