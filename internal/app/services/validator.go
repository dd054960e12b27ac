package services

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/app/schema"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// Exclusion names the record allowed to keep its own unique values
type Exclusion struct {
	codigo int64
	active bool
}

// NoExclusion is used on insert: every stored record takes part in uniqueness checks
var NoExclusion = Exclusion{}

// Excluding exempts the record with codigo, used on edit
func Excluding(codigo int64) Exclusion {
	return Exclusion{codigo: codigo, active: true}
}

// matches reports whether r is the excluded record. Records without a valid
// codigo never match.
func (e Exclusion) matches(r models.Record) bool {
	if !e.active {
		return false
	}
	c, ok := r.Codigo()
	return ok && c == e.codigo
}

// RecordSource returns the current records of a category
type RecordSource func(ctx context.Context, category schema.Category) ([]models.Record, error)

// Validator coerces payload fields to their schema types and checks
// emptiness, uniqueness and foreign keys. It stops at the first failure.
type Validator struct{}

// NewValidator creates a Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every non-primary-key field of sch in declaration order and
// returns the coerced fields. exclude names the record allowed to keep its own
// unique values (NoExclusion on insert).
func (v *Validator) Validate(ctx context.Context, sch schema.Schema, exclude Exclusion, payload map[string]interface{}, source RecordSource) (models.Record, error) {
	category := string(sch.Category)
	out := make(models.Record, len(sch.Fields))

	for _, field := range sch.Fields {
		if field.IsPrimaryKey() {
			continue
		}

		raw, ok := payload[field.Name]
		if !ok {
			return nil, apperrors.NewMissingFieldError(category, field.Name)
		}

		value, text, ok := coerce(field.Type, raw)
		if !ok {
			return nil, apperrors.NewTypeCoercionError(category, field.Name, raw)
		}

		if strings.TrimSpace(text) == "" {
			return nil, apperrors.NewEmptyValueError(category, field.Name)
		}

		if field.Unique {
			records, err := source(ctx, sch.Category)
			if err != nil {
				return nil, err
			}
			for _, r := range records {
				if exclude.matches(r) {
					continue
				}
				if _, other, ok := coerce(field.Type, r[field.Name]); ok && other == text {
					return nil, apperrors.NewDuplicateValueError(category, field.Name, value)
				}
			}
		}

		if field.References != "" {
			codigo, _ := value.(int64)
			records, err := source(ctx, field.References)
			if err != nil {
				return nil, err
			}
			if !containsCodigo(records, codigo) {
				return nil, apperrors.NewReferentialError(category, field.Name, codigo, string(field.References))
			}
		}

		out[field.Name] = value
	}

	return out, nil
}

func containsCodigo(records []models.Record, codigo int64) bool {
	for _, r := range records {
		if c, ok := r.Codigo(); ok && c == codigo {
			return true
		}
	}
	return false
}

// coerce converts raw to the field type, returning the typed value and its text form
func coerce(t schema.FieldType, raw interface{}) (interface{}, string, bool) {
	switch t {
	case schema.TypeInt:
		i, ok := coerceInt(raw)
		if !ok {
			return nil, "", false
		}
		return i, strconv.FormatInt(i, 10), true
	case schema.TypeString:
		s, ok := coerceString(raw)
		if !ok {
			return nil, "", false
		}
		return s, s, true
	}
	return nil, "", false
}

func coerceInt(raw interface{}) (int64, bool) {
	switch x := raw.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(x)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func coerceString(raw interface{}) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}
