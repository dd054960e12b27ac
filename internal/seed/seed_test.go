package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolmanager/internal/app/repositories"
	"github.com/yigit/schoolmanager/internal/app/services"
)

func newService() services.RecordService {
	repo := repositories.NewMemoryRepository()
	return services.NewRecordService(repo, services.NewSequenceGenerator(repo), services.RecordServiceOptions{Logger: zerolog.Nop()})
}

func TestCreateDefaultDataSeedsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	if err := CreateDefaultData(ctx, svc, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	list, err := svc.List(ctx, "disciplinas")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(DefaultSubjects) {
		t.Fatalf("expected %d subjects, got %d", len(DefaultSubjects), len(list))
	}
	for i, rec := range list {
		if c, ok := rec.Codigo(); !ok || rec["nome"] != DefaultSubjects[i] || c != int64(i+1) {
			t.Fatalf("unexpected subject %d: %#v", i, rec)
		}
	}
}

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	if _, err := svc.Insert(ctx, "disciplinas", map[string]interface{}{"nome": "Artes"}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := CreateDefaultData(ctx, svc, zerolog.Nop()); err != nil {
			t.Fatal(err)
		}
	}
	list, err := svc.List(ctx, "disciplinas")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("populated collection must not be seeded, got %d records", len(list))
	}
}
