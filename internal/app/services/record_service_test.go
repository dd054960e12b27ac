package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/app/repositories"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

func newTestService(t *testing.T, repo repositories.CollectionRepository, strict bool) RecordService {
	t.Helper()
	return NewRecordService(repo, NewSequenceGenerator(repo), RecordServiceOptions{
		StrictLoad: strict,
		Logger:     zerolog.Nop(),
	})
}

func codigoOf(t *testing.T, rec models.Record) int64 {
	t.Helper()
	c, ok := rec.Codigo()
	if !ok {
		t.Fatalf("record has no valid codigo: %#v", rec)
	}
	return c
}

func mustInsert(t *testing.T, svc RecordService, category string, payload map[string]interface{}) models.Record {
	t.Helper()
	rec, err := svc.Insert(context.Background(), category, payload)
	if err != nil {
		t.Fatalf("insert into %s: %v", category, err)
	}
	return rec
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	svc := newTestService(t, repositories.NewMemoryRepository(), false)

	rec := mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})
	want := models.Record{"codigo": int64(1), "nome": "Ana", "cpf": "111"}
	if !reflect.DeepEqual(rec, want) {
		t.Fatalf("insert returned %#v, want %#v", rec, want)
	}

	got, err := svc.Get(context.Background(), "alunos", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("get returned %#v, want %#v", got, want)
	}

	list, err := svc.List(context.Background(), "alunos")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !reflect.DeepEqual(list[0], want) {
		t.Fatalf("list returned %#v", list)
	}
}

func TestCodigoNeverReused(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)

	const n = 4
	for i := 1; i <= n; i++ {
		rec := mustInsert(t, svc, "disciplinas", map[string]interface{}{"nome": fmt.Sprintf("D%d", i)})
		if c := codigoOf(t, rec); c != int64(i) {
			t.Fatalf("insert %d got codigo %d", i, c)
		}
	}
	for i := int64(1); i <= n; i++ {
		if _, err := svc.Delete(ctx, "disciplinas", i); err != nil {
			t.Fatal(err)
		}
	}
	rec := mustInsert(t, svc, "disciplinas", map[string]interface{}{"nome": "Nova"})
	if c := codigoOf(t, rec); c != n+1 {
		t.Fatalf("expected codigo %d after deleting everything, got %d", n+1, c)
	}
}

func TestDuplicateCPF(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)
	mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})

	_, err := svc.Insert(ctx, "alunos", map[string]interface{}{"nome": "Bia", "cpf": "111"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	edited, err := svc.Edit(ctx, "alunos", 1, map[string]interface{}{"nome": "Ana Maria", "cpf": "111"})
	if err != nil {
		t.Fatalf("editing with own cpf should succeed: %v", err)
	}
	if edited["nome"] != "Ana Maria" || codigoOf(t, edited) != 1 {
		t.Fatalf("unexpected edited record %#v", edited)
	}
}

func TestReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)
	mustInsert(t, svc, "disciplinas", map[string]interface{}{"nome": "Matematica"})

	_, err := svc.Insert(ctx, "turmas", map[string]interface{}{"nome": "T1", "id_professor": 7, "id_disciplina": 1})
	var re *apperrors.RecordError
	if !errors.As(err, &re) || re.Kind != apperrors.KindReferential || re.Target != "professores" {
		t.Fatalf("expected referential error naming professores, got %v", err)
	}

	mustInsert(t, svc, "professores", map[string]interface{}{"nome": "Carla", "cpf": "900"})
	turma := mustInsert(t, svc, "turmas", map[string]interface{}{"nome": "T1", "id_professor": 1, "id_disciplina": "1"})

	got, err := svc.Get(ctx, "turmas", codigoOf(t, turma))
	if err != nil {
		t.Fatal(err)
	}
	if got["id_professor"] != int64(1) || got["id_disciplina"] != int64(1) {
		t.Fatalf("foreign keys not stored as integers: %#v", got)
	}

	mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})
	mustInsert(t, svc, "matriculas", map[string]interface{}{"id_aluno": 1, "id_turma": 1})
}

func TestDeleteKeepsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)
	mustInsert(t, svc, "professores", map[string]interface{}{"nome": "Carla", "cpf": "900"})
	mustInsert(t, svc, "disciplinas", map[string]interface{}{"nome": "Fisica"})
	mustInsert(t, svc, "turmas", map[string]interface{}{"nome": "T1", "id_professor": 1, "id_disciplina": 1})

	removed, err := svc.Delete(ctx, "professores", 1)
	if err != nil {
		t.Fatal(err)
	}
	if removed["nome"] != "Carla" {
		t.Fatalf("delete returned %#v", removed)
	}
	turmas, err := svc.List(ctx, "turmas")
	if err != nil {
		t.Fatal(err)
	}
	if len(turmas) != 1 || turmas[0]["id_professor"] != int64(1) {
		t.Fatalf("turma should keep its reference, got %#v", turmas)
	}
}

func TestNotFoundLeavesStorageUntouched(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryRepository()
	svc := newTestService(t, repo, false)
	mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})

	before, _ := repo.Raw("alunos")

	if _, err := svc.Edit(ctx, "alunos", 42, map[string]interface{}{"nome": "X", "cpf": "999"}); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("edit: expected not found, got %v", err)
	}
	if _, err := svc.Delete(ctx, "alunos", 42); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
	if _, err := svc.Get(ctx, "alunos", 42); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}

	after, _ := repo.Raw("alunos")
	if !bytes.Equal(before, after) {
		t.Fatalf("storage changed:\nbefore=%s\nafter=%s", before, after)
	}
}

func TestRejectedInsertAppendsNothing(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryRepository()
	svc := newTestService(t, repo, false)
	mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})
	before, _ := repo.Raw("alunos")
	seqBefore, _ := repo.Raw(SequenceCollection)

	_, err := svc.Insert(ctx, "alunos", map[string]interface{}{"nome": "", "cpf": "222"})
	if apperrors.KindOf(err) != apperrors.KindEmptyValue {
		t.Fatalf("expected empty value error, got %v", err)
	}
	if err.Error() != "field 'nome' must not be empty" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	after, _ := repo.Raw("alunos")
	seqAfter, _ := repo.Raw(SequenceCollection)
	if !bytes.Equal(before, after) || !bytes.Equal(seqBefore, seqAfter) {
		t.Fatal("a rejected insert must not touch records or the sequence")
	}
}

func TestEditMergesFieldsAndKeepsCodigo(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)
	mustInsert(t, svc, "disciplinas", map[string]interface{}{"nome": "Quimica"})

	rec, err := svc.Edit(ctx, "disciplinas", 1, map[string]interface{}{"nome": "Bioquimica", "codigo": 9})
	if err != nil {
		t.Fatal(err)
	}
	want := models.Record{"codigo": int64(1), "nome": "Bioquimica"}
	if !reflect.DeepEqual(rec, want) {
		t.Fatalf("got %#v, want %#v", rec, want)
	}
}

func TestUnknownCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)

	if _, err := svc.List(ctx, "cursos"); !errors.Is(err, apperrors.ErrUnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}
	if _, err := svc.Insert(ctx, SequenceCollection, map[string]interface{}{}); !errors.Is(err, apperrors.ErrUnknownCategory) {
		t.Fatalf("the sequence collection must not be addressable, got %v", err)
	}
}

func writeCorruptCollection(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSoftLoadTreatsCorruptCategoryAsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeCorruptCollection(t, dir, "alunos")
	repo, err := repositories.NewFileRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, repo, false)

	list, err := svc.List(ctx, "alunos")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}
}

func TestStrictLoadSurfacesStorageError(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeCorruptCollection(t, dir, "alunos")
	repo, err := repositories.NewFileRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, repo, true)

	if _, err := svc.List(ctx, "alunos"); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := svc.Insert(ctx, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"}); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected storage error on insert, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "alunos.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{not json" {
		t.Fatal("a strict load failure must not overwrite the file")
	}
}

func TestInsertAfterLostSequenceSkipsLiveKeys(t *testing.T) {
	dir := t.TempDir()
	repo, err := repositories.NewFileRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, repo, false)
	mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})
	mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Bia", "cpf": "222"})

	if err := os.Remove(filepath.Join(dir, SequenceCollection+".json")); err != nil {
		t.Fatal(err)
	}
	rec := mustInsert(t, svc, "alunos", map[string]interface{}{"nome": "Caio", "cpf": "333"})
	if c := codigoOf(t, rec); c != 3 {
		t.Fatalf("expected codigo 3, got %d", c)
	}
}

type recordedOp struct {
	category, operation string
	kind                apperrors.Kind
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (f *fakeRecorder) ObserveOperation(category, operation string, err error, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recordedOp{category, operation, apperrors.KindOf(err)})
}

func TestOperationsAreObserved(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryRepository()
	rec := &fakeRecorder{}
	svc := NewRecordService(repo, NewSequenceGenerator(repo), RecordServiceOptions{Recorder: rec, Logger: zerolog.Nop()})

	_, _ = svc.Insert(ctx, "alunos", map[string]interface{}{"nome": "Ana", "cpf": "111"})
	_, _ = svc.Get(ctx, "alunos", 5)

	want := []recordedOp{
		{"alunos", OpInsert, ""},
		{"alunos", OpGet, apperrors.KindNotFound},
	}
	if !reflect.DeepEqual(rec.ops, want) {
		t.Fatalf("got %#v, want %#v", rec.ops, want)
	}
}

func TestConcurrentInsertsKeepUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repositories.NewMemoryRepository(), false)

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every pair of goroutines races for the same cpf.
			_, err := svc.Insert(ctx, "alunos", map[string]interface{}{"nome": fmt.Sprintf("A%d", i), "cpf": fmt.Sprintf("%d", i/2)})
			if errors.Is(err, apperrors.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			} else if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	list, err := svc.List(ctx, "alunos")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != n/2 || conflicts != n/2 {
		t.Fatalf("expected %d records and %d conflicts, got %d and %d", n/2, n/2, len(list), conflicts)
	}
	seen := make(map[int64]bool)
	for _, r := range list {
		c := codigoOf(t, r)
		if seen[c] {
			t.Fatalf("duplicate codigo %d", c)
		}
		seen[c] = true
	}
}

func TestMalformedStoredRecordKeepsUniqueness(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alunos.json"), []byte(`[{"nome":"X","cpf":"111"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := repositories.NewFileRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, repo, true)

	if _, err := svc.Insert(ctx, "alunos", map[string]interface{}{"nome": "Y", "cpf": "111"}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict with the record lacking a codigo, got %v", err)
	}
	for _, codigo := range []int64{-1, 0} {
		if _, err := svc.Get(ctx, "alunos", codigo); !errors.Is(err, apperrors.ErrResourceNotFound) {
			t.Fatalf("Get(%d): a record without codigo must not be addressable, got %v", codigo, err)
		}
		if _, err := svc.Delete(ctx, "alunos", codigo); !errors.Is(err, apperrors.ErrResourceNotFound) {
			t.Fatalf("Delete(%d): expected not found, got %v", codigo, err)
		}
	}
}
