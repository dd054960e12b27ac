package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestRecordErrorSentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"missing", NewMissingFieldError("alunos", "nome"), ErrValidationFailed, KindMissingField},
		{"type", NewTypeCoercionError("turmas", "id_professor", "abc"), ErrValidationFailed, KindTypeCoercion},
		{"empty", NewEmptyValueError("alunos", "nome"), ErrValidationFailed, KindEmptyValue},
		{"duplicate", NewDuplicateValueError("alunos", "cpf", "111"), ErrConflict, KindDuplicateValue},
		{"reference", NewReferentialError("turmas", "id_professor", int64(9), "professores"), ErrReference, KindReferential},
		{"not found", NewNotFoundError("alunos", 3), ErrResourceNotFound, KindNotFound},
		{"storage", NewStorageError("alunos", errors.New("disk full")), ErrStorage, KindStorage},
		{"category", NewUnknownCategoryError("cursos"), ErrUnknownCategory, KindUnknownCategory},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tc.err)
			if !errors.Is(wrapped, tc.sentinel) {
				t.Fatalf("expected errors.Is(%v, %v)", wrapped, tc.sentinel)
			}
			if got := KindOf(wrapped); got != tc.kind {
				t.Fatalf("expected kind %q, got %q", tc.kind, got)
			}
		})
	}
}

func TestRecordErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewMissingFieldError("alunos", "cpf"), "field 'cpf' is required"},
		{NewEmptyValueError("alunos", "nome"), "field 'nome' must not be empty"},
		{NewDuplicateValueError("alunos", "cpf", "111"), "cpf '111' already exists in alunos"},
		{NewReferentialError("turmas", "id_professor", int64(7), "professores"), "id_professor 7 does not exist in professores"},
		{NewNotFoundError("matriculas", 4), "codigo 4 not found in matriculas"},
		{NewUnknownCategoryError("cursos"), "unknown category 'cursos'"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestStorageErrorKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewStorageError("alunos", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected storage error to wrap its cause")
	}
	if IsValidation(err) {
		t.Fatal("storage error must not be a validation error")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(NewReferentialError("turmas", "id_turma", int64(1), "turmas")) {
		t.Fatal("referential errors abort before mutation")
	}
	if IsValidation(NewNotFoundError("alunos", 1)) {
		t.Fatal("not found is not a validation error")
	}
	if IsValidation(errors.New("plain")) {
		t.Fatal("plain errors have no kind")
	}
}

func TestIsHelper(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrConflict)
	if !Is(err, ErrStorage, ErrResourceNotFound, ErrConflict) {
		t.Fatal("expected match against the error list")
	}
	if Is(err, ErrStorage) {
		t.Fatal("unexpected match")
	}
}
