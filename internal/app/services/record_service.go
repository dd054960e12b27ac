package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/app/repositories"
	"github.com/yigit/schoolmanager/internal/app/schema"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// Operation names reported to the OperationRecorder
const (
	OpList   = "list"
	OpGet    = "get"
	OpInsert = "insert"
	OpEdit   = "edit"
	OpDelete = "delete"
)

// RecordService defines the record store operations shared by every category
type RecordService interface {
	List(ctx context.Context, category string) ([]models.Record, error)
	Get(ctx context.Context, category string, codigo int64) (models.Record, error)
	Insert(ctx context.Context, category string, payload map[string]interface{}) (models.Record, error)
	Edit(ctx context.Context, category string, codigo int64, payload map[string]interface{}) (models.Record, error)
	Delete(ctx context.Context, category string, codigo int64) (models.Record, error)
}

// OperationRecorder observes the outcome of record store operations
type OperationRecorder interface {
	ObserveOperation(category, operation string, err error, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, string, error, time.Duration) {}

// RecordServiceOptions configures NewRecordService
type RecordServiceOptions struct {
	// StrictLoad surfaces unreadable collections as storage errors instead of
	// treating them as empty.
	StrictLoad bool
	Recorder   OperationRecorder
	Logger     zerolog.Logger
}

// recordServiceImpl implements RecordService.
// Each category has its own RWMutex: writers hold it across
// load-validate-mutate-save, readers hold the read side. Foreign-key checks
// read-lock the referenced category; references form a DAG so lock order is fixed.
type recordServiceImpl struct {
	repo       repositories.CollectionRepository
	sequences  *SequenceGenerator
	validator  *Validator
	locks      map[schema.Category]*sync.RWMutex
	strictLoad bool
	recorder   OperationRecorder
	logger     zerolog.Logger
}

// NewRecordService creates the record store over repo
func NewRecordService(repo repositories.CollectionRepository, sequences *SequenceGenerator, opts RecordServiceOptions) RecordService {
	locks := make(map[schema.Category]*sync.RWMutex)
	for _, c := range schema.Categories() {
		locks[c] = &sync.RWMutex{}
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &recordServiceImpl{
		repo:       repo,
		sequences:  sequences,
		validator:  NewValidator(),
		locks:      locks,
		strictLoad: opts.StrictLoad,
		recorder:   recorder,
		logger:     opts.Logger,
	}
}

// load reads a category without locking; callers hold the category lock
func (s *recordServiceImpl) load(ctx context.Context, category schema.Category) ([]models.Record, error) {
	records, err := s.repo.Load(ctx, string(category))
	if err != nil {
		if s.strictLoad {
			return nil, apperrors.NewStorageError(string(category), err)
		}
		s.logger.Warn().Err(err).Str("category", string(category)).Msg("Failed to load category, treating it as empty")
		return []models.Record{}, nil
	}
	return records, nil
}

func (s *recordServiceImpl) save(ctx context.Context, category schema.Category, records []models.Record) error {
	if err := s.repo.Save(ctx, string(category), records); err != nil {
		s.logger.Error().Err(err).Str("category", string(category)).Msg("Failed to save category")
		return apperrors.NewStorageError(string(category), err)
	}
	return nil
}

// sourceFor serves the locked category from the in-hand slice and read-locks any other
func (s *recordServiceImpl) sourceFor(own schema.Category, current []models.Record) RecordSource {
	return func(ctx context.Context, category schema.Category) ([]models.Record, error) {
		if category == own {
			return current, nil
		}
		lock, ok := s.locks[category]
		if !ok {
			return nil, apperrors.NewUnknownCategoryError(string(category))
		}
		lock.RLock()
		defer lock.RUnlock()
		return s.load(ctx, category)
	}
}

func (s *recordServiceImpl) observe(category, op string, start time.Time, err error) {
	s.recorder.ObserveOperation(category, op, err, time.Since(start))
}

// List returns every record of a category in insertion order
func (s *recordServiceImpl) List(ctx context.Context, category string) (records []models.Record, err error) {
	defer func(start time.Time) { s.observe(category, OpList, start, err) }(time.Now())

	sch, err := schema.Lookup(category)
	if err != nil {
		return nil, err
	}
	lock := s.locks[sch.Category]
	lock.RLock()
	defer lock.RUnlock()

	records, err = s.load(ctx, sch.Category)
	if err != nil {
		return nil, err
	}
	return models.CloneRecords(records), nil
}

// Get returns the record with the given codigo
func (s *recordServiceImpl) Get(ctx context.Context, category string, codigo int64) (record models.Record, err error) {
	defer func(start time.Time) { s.observe(category, OpGet, start, err) }(time.Now())

	sch, err := schema.Lookup(category)
	if err != nil {
		return nil, err
	}
	lock := s.locks[sch.Category]
	lock.RLock()
	defer lock.RUnlock()

	records, err := s.load(ctx, sch.Category)
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, codigo); i >= 0 {
		return records[i].Clone(), nil
	}
	return nil, apperrors.NewNotFoundError(category, codigo)
}

// Insert validates payload, allocates a codigo and appends the new record
func (s *recordServiceImpl) Insert(ctx context.Context, category string, payload map[string]interface{}) (record models.Record, err error) {
	defer func(start time.Time) { s.observe(category, OpInsert, start, err) }(time.Now())

	sch, err := schema.Lookup(category)
	if err != nil {
		return nil, err
	}
	lock := s.locks[sch.Category]
	lock.Lock()
	defer lock.Unlock()

	records, err := s.load(ctx, sch.Category)
	if err != nil {
		return nil, err
	}

	fields, err := s.validator.Validate(ctx, sch, NoExclusion, payload, s.sourceFor(sch.Category, records))
	if err != nil {
		return nil, err
	}

	codigo, err := s.sequences.Allocate(ctx, category, maxCodigo(records))
	if err != nil {
		return nil, fmt.Errorf("allocating codigo for %s: %w", category, err)
	}

	record = models.Record{models.PrimaryKeyField: codigo}
	for k, v := range fields {
		record[k] = v
	}

	records = append(records, record)
	if err := s.save(ctx, sch.Category, records); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("category", category).Int64("codigo", codigo).Msg("Record inserted")
	return record.Clone(), nil
}

// Edit validates payload and merges it into the record with the given codigo
func (s *recordServiceImpl) Edit(ctx context.Context, category string, codigo int64, payload map[string]interface{}) (record models.Record, err error) {
	defer func(start time.Time) { s.observe(category, OpEdit, start, err) }(time.Now())

	sch, err := schema.Lookup(category)
	if err != nil {
		return nil, err
	}
	lock := s.locks[sch.Category]
	lock.Lock()
	defer lock.Unlock()

	records, err := s.load(ctx, sch.Category)
	if err != nil {
		return nil, err
	}

	fields, err := s.validator.Validate(ctx, sch, Excluding(codigo), payload, s.sourceFor(sch.Category, records))
	if err != nil {
		return nil, err
	}

	i := indexOf(records, codigo)
	if i < 0 {
		return nil, apperrors.NewNotFoundError(category, codigo)
	}

	for k, v := range fields {
		records[i][k] = v
	}
	if err := s.save(ctx, sch.Category, records); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("category", category).Int64("codigo", codigo).Msg("Record updated")
	return records[i].Clone(), nil
}

// Delete removes the first record with the given codigo.
// References held by other categories are left in place.
func (s *recordServiceImpl) Delete(ctx context.Context, category string, codigo int64) (record models.Record, err error) {
	defer func(start time.Time) { s.observe(category, OpDelete, start, err) }(time.Now())

	sch, err := schema.Lookup(category)
	if err != nil {
		return nil, err
	}
	lock := s.locks[sch.Category]
	lock.Lock()
	defer lock.Unlock()

	records, err := s.load(ctx, sch.Category)
	if err != nil {
		return nil, err
	}

	i := indexOf(records, codigo)
	if i < 0 {
		return nil, apperrors.NewNotFoundError(category, codigo)
	}
	removed := records[i]
	records = append(records[:i], records[i+1:]...)

	if err := s.save(ctx, sch.Category, records); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("category", category).Int64("codigo", codigo).Msg("Record deleted")
	return removed, nil
}

func indexOf(records []models.Record, codigo int64) int {
	for i, r := range records {
		if c, ok := r.Codigo(); ok && c == codigo {
			return i
		}
	}
	return -1
}

func maxCodigo(records []models.Record) int64 {
	var highest int64
	for _, r := range records {
		if c, ok := r.Codigo(); ok && c > highest {
			highest = c
		}
	}
	return highest
}
