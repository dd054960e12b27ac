package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolmanager/internal/app/schema"
	"github.com/yigit/schoolmanager/internal/app/services"
)

// DefaultSubjects are inserted into an empty disciplinas collection
var DefaultSubjects = []string{
	"Matematica",
	"Portugues",
	"Historia",
	"Geografia",
	"Ciencias",
}

// CreateDefaultData inserts the default subjects through the record store when
// the collection is empty. A populated collection is left alone.
func CreateDefaultData(ctx context.Context, recordService services.RecordService, lgr zerolog.Logger) error {
	category := string(schema.Subjects)

	existing, err := recordService.List(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", category, err)
	}
	if len(existing) > 0 {
		lgr.Info().Int("count", len(existing)).Msg("Subjects already present, skipping seed")
		return nil
	}

	lgr.Info().Msg("Creating default subjects...")
	var finalErr error
	for _, name := range DefaultSubjects {
		rec, err := recordService.Insert(ctx, category, map[string]interface{}{"nome": name})
		if err != nil {
			lgr.Error().Err(err).Str("nome", name).Msg("Error creating default subject")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		codigo, _ := rec.Codigo()
		lgr.Debug().Int64("codigo", codigo).Str("nome", name).Msg("Default subject created")
	}

	if finalErr != nil {
		return finalErr
	}
	lgr.Info().Int("count", len(DefaultSubjects)).Msg("Default subjects created")
	return nil
}
