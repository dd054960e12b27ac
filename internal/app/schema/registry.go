package schema

import (
	"strings"

	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// Category names one of the fixed record collections
type Category string

// Category constants
const (
	Students    Category = "alunos"
	Teachers    Category = "professores"
	Subjects    Category = "disciplinas"
	Classes     Category = "turmas"
	Enrollments Category = "matriculas"
)

// ReferencePrefix marks a field as a foreign key
const ReferencePrefix = "id_"

// FieldType is the primitive type of a field
type FieldType string

const (
	TypeInt    FieldType = "int"
	TypeString FieldType = "string"
)

// Field describes one schema column.
type Field struct {
	Name   string    `json:"name"`
	Type   FieldType `json:"type"`
	Unique bool      `json:"unique,omitempty"`
	// References is the target category of a foreign-key field, empty otherwise
	References Category `json:"references,omitempty"`
}

// IsPrimaryKey reports whether the field is the reserved codigo field
func (f Field) IsPrimaryKey() bool {
	return f.Name == models.PrimaryKeyField
}

// Schema is the ordered field list of a category
type Schema struct {
	Category Category `json:"category"`
	Fields   []Field  `json:"fields"`
}

// Field looks up a field by name
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ReferenceTarget derives the target category of a foreign-key field name:
// strip the prefix, then pluralize with "es" after an "r" and "s" otherwise.
// The second result is false when the name carries no foreign-key marker.
func ReferenceTarget(fieldName string) (Category, bool) {
	if !strings.HasPrefix(fieldName, ReferencePrefix) {
		return "", false
	}
	stem := strings.TrimPrefix(fieldName, ReferencePrefix)
	if stem == "" {
		return "", false
	}
	if strings.HasSuffix(stem, "r") {
		return Category(stem + "es"), true
	}
	return Category(stem + "s"), true
}

func pk() Field {
	return Field{Name: models.PrimaryKeyField, Type: TypeInt}
}

func str(name string) Field {
	return Field{Name: name, Type: TypeString}
}

func unique(name string) Field {
	return Field{Name: name, Type: TypeString, Unique: true}
}

func ref(name string) Field {
	target, ok := ReferenceTarget(name)
	if !ok {
		panic("schema: " + name + " is not a foreign-key field name")
	}
	return Field{Name: name, Type: TypeInt, References: target}
}

// registry maps category tag -> schema; order matters for Categories()
var registry = []Schema{
	{Category: Students, Fields: []Field{pk(), str("nome"), unique("cpf")}},
	{Category: Teachers, Fields: []Field{pk(), str("nome"), unique("cpf")}},
	{Category: Subjects, Fields: []Field{pk(), str("nome")}},
	{Category: Classes, Fields: []Field{pk(), str("nome"), ref("id_professor"), ref("id_disciplina")}},
	{Category: Enrollments, Fields: []Field{pk(), ref("id_aluno"), ref("id_turma")}},
}

var byName = func() map[Category]Schema {
	m := make(map[Category]Schema, len(registry))
	for _, s := range registry {
		m[s.Category] = s
	}
	return m
}()

// Lookup returns the schema for a category name
func Lookup(name string) (Schema, error) {
	s, ok := byName[Category(name)]
	if !ok {
		return Schema{}, apperrors.NewUnknownCategoryError(name)
	}
	return s, nil
}

// Categories returns every registered category in declaration order
func Categories() []Category {
	out := make([]Category, 0, len(registry))
	for _, s := range registry {
		out = append(out, s.Category)
	}
	return out
}

// All returns every schema in declaration order
func All() []Schema {
	out := make([]Schema, len(registry))
	copy(out, registry)
	return out
}
