package models

// PrimaryKeyField is the reserved primary-key field present in every category
const PrimaryKeyField = "codigo"

// Record is a single row of a category: field name -> scalar value.
// Integer fields hold int64, string fields hold string.
type Record map[string]interface{}

// Codigo returns the record's primary key. ok is false when the key is
// missing or not an integer; such a record matches no codigo.
func (r Record) Codigo() (codigo int64, ok bool) {
	switch v := r[PrimaryKeyField].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// Clone returns a shallow copy; values are scalars so this is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneRecords copies a record slice so callers cannot alias stored state
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Sequence is the persisted singleton mapping a category name to its last issued codigo
type Sequence map[string]int64
