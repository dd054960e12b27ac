package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yigit/schoolmanager/internal/app/models"
)

// CollectionRepository loads and saves a named collection as a single unit.
// Load returns an empty slice and nil error when the collection was never saved.
type CollectionRepository interface {
	Load(ctx context.Context, name string) ([]models.Record, error)
	Save(ctx context.Context, name string, records []models.Record) error
	Close() error
}

// encodeRecords renders a collection as an indented JSON array
func encodeRecords(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return data, nil
}

// decodeRecords parses a JSON array of objects. Integral numbers become int64.
// Empty input and a JSON null both decode to an empty collection.
func decodeRecords(data []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	records := make([]models.Record, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		rec := make(models.Record, len(r))
		for k, v := range r {
			rec[k] = normalizeValue(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
