package services

import (
	"context"
	"sync"

	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/app/repositories"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// SequenceCollection is the reserved collection holding the sequence singleton
const SequenceCollection = "sequencias"

// SequenceGenerator hands out per-category primary keys from a persisted
// singleton. Allocations are serialized by a mutex; the counter never decreases.
type SequenceGenerator struct {
	repo repositories.CollectionRepository
	mu   sync.Mutex
}

// NewSequenceGenerator creates a SequenceGenerator over repo
func NewSequenceGenerator(repo repositories.CollectionRepository) *SequenceGenerator {
	return &SequenceGenerator{repo: repo}
}

// Allocate persists and returns the next codigo for category. floor is the
// highest codigo currently stored in the category; the result always exceeds
// it, so a lost sequence file cannot hand out a live key twice.
func (g *SequenceGenerator) Allocate(ctx context.Context, category string, floor int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seq, err := g.load(ctx)
	if err != nil {
		return 0, err
	}

	next := seq[category]
	if floor > next {
		next = floor
	}
	next++
	seq[category] = next

	if err := g.repo.Save(ctx, SequenceCollection, []models.Record{seq.record()}); err != nil {
		return 0, apperrors.NewStorageError(SequenceCollection, err)
	}
	return next, nil
}

// Current returns the last codigo issued for category, 0 if none
func (g *SequenceGenerator) Current(ctx context.Context, category string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seq, err := g.load(ctx)
	if err != nil {
		return 0, err
	}
	return seq[category], nil
}

// load never falls back to an empty sequence on failure: that would restart numbering.
func (g *SequenceGenerator) load(ctx context.Context) (sequenceState, error) {
	records, err := g.repo.Load(ctx, SequenceCollection)
	if err != nil {
		return nil, apperrors.NewStorageError(SequenceCollection, err)
	}
	seq := make(sequenceState)
	if len(records) == 0 {
		return seq, nil
	}
	for name, v := range records[0] {
		switch n := v.(type) {
		case int64:
			seq[name] = n
		case float64:
			seq[name] = int64(n)
		}
	}
	return seq, nil
}

type sequenceState models.Sequence

func (s sequenceState) record() models.Record {
	r := make(models.Record, len(s))
	for k, v := range s {
		r[k] = v
	}
	return r
}
