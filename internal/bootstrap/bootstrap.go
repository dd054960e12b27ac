package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	appControllers "github.com/yigit/schoolmanager/internal/app/controllers"
	appRepos "github.com/yigit/schoolmanager/internal/app/repositories"
	appRoutes "github.com/yigit/schoolmanager/internal/app/routes"
	"github.com/yigit/schoolmanager/internal/app/schema"
	appServices "github.com/yigit/schoolmanager/internal/app/services"
	"github.com/yigit/schoolmanager/internal/config"
	"github.com/yigit/schoolmanager/internal/db"
	appMiddleware "github.com/yigit/schoolmanager/internal/middleware"
	"github.com/yigit/schoolmanager/internal/pkg/logger"
	"github.com/yigit/schoolmanager/internal/pkg/metrics"
	"github.com/yigit/schoolmanager/internal/seed"
)

// probeTimeout bounds the startup load of every category
const probeTimeout = 15 * time.Second

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repository       appRepos.CollectionRepository
	Sequences        *appServices.SequenceGenerator
	RecordService    appServices.RecordService
	RecordController *appControllers.RecordController
	SystemController *appControllers.SystemController
	Metrics          *metrics.Metrics // nil when metrics are disabled
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", config.DefaultPath)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: cfg.Logging.Format == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured persistence backend and probes every category.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.CollectionRepository, error) {
	opts := appRepos.Options{
		Backend:    cfg.Storage.Backend,
		DataDir:    cfg.Storage.DataDir,
		SQLitePath: cfg.Storage.SQLitePath,
		S3: appRepos.S3Options{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Prefix:    cfg.Storage.S3.Prefix,
			PathStyle: cfg.Storage.S3.PathStyle,
		},
	}

	if cfg.Storage.Backend == appRepos.BackendPostgres {
		lgr.Info().Msg("Establishing database connection...")
		pool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		opts.Pool = pool
	}

	repo, err := appRepos.New(ctx, opts)
	if err != nil {
		if opts.Pool != nil {
			opts.Pool.Close()
		}
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	lgr.Info().Str("backend", cfg.Storage.Backend).Msg("Storage backend ready")

	if err := ProbeStorage(ctx, repo, cfg.Storage.StrictLoad, lgr); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// ProbeStorage loads every category and the sequence singleton concurrently.
// Unreadable categories are fatal only under strict loading; the sequence always is.
func ProbeStorage(ctx context.Context, repo appRepos.CollectionRepository, strict bool, lgr zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, err := repo.Load(gctx, appServices.SequenceCollection); err != nil {
			return fmt.Errorf("sequence collection unreadable: %w", err)
		}
		return nil
	})

	for _, category := range schema.Categories() {
		name := string(category)
		g.Go(func() error {
			records, err := repo.Load(gctx, name)
			if err != nil {
				if strict {
					return fmt.Errorf("category %s unreadable: %w", name, err)
				}
				lgr.Warn().Err(err).Str("category", name).Msg("Category unreadable, it will be treated as empty")
				return nil
			}
			lgr.Debug().Str("category", name).Int("records", len(records)).Msg("Category loaded")
			return nil
		})
	}

	return g.Wait()
}

// BuildDependencies initializes the record store, metrics and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, repo appRepos.CollectionRepository, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Repository: repo,
		Logger:     lgr,
	}

	opts := appServices.RecordServiceOptions{
		StrictLoad: cfg.Storage.StrictLoad,
		Logger:     lgr,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
		opts.Recorder = deps.Metrics
	}

	deps.Sequences = appServices.NewSequenceGenerator(repo)
	deps.RecordService = appServices.NewRecordService(repo, deps.Sequences, opts)

	if cfg.Seed.Enabled {
		if err := seed.CreateDefaultData(ctx, deps.RecordService, lgr); err != nil {
			// Seeding is best effort
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	deps.RecordController = appControllers.NewRecordController(deps.RecordService)
	deps.SystemController = appControllers.NewSystemController(repo, cfg.Storage.Backend)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	switch cfg.Server.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	lgr.Info().Str("mode", gin.Mode()).Msg("Gin mode set")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestIDMiddleware(),
		appMiddleware.LoggerMiddleware(lgr),
	)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	appRoutes.SetupRouter(router,
		deps.RecordController,
		deps.SystemController,
		appRoutes.MetricsOptions{Collector: deps.Metrics, Path: cfg.Metrics.Path},
	)

	return router
}
