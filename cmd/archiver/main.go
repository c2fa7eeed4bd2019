package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-archiver/internal/api/http"
	"github.com/spec-kit/ticket-archiver/internal/api/http/handlers"
	"github.com/spec-kit/ticket-archiver/internal/audit"
	"github.com/spec-kit/ticket-archiver/internal/auth"
	"github.com/spec-kit/ticket-archiver/internal/config"
	"github.com/spec-kit/ticket-archiver/internal/crypto"
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/events"
	"github.com/spec-kit/ticket-archiver/internal/locale"
	"github.com/spec-kit/ticket-archiver/internal/observability"
	"github.com/spec-kit/ticket-archiver/internal/persistence"
	"github.com/spec-kit/ticket-archiver/internal/platform"
	"github.com/spec-kit/ticket-archiver/internal/reconcile"
	"github.com/spec-kit/ticket-archiver/internal/render"
	"github.com/spec-kit/ticket-archiver/internal/repository"
	"github.com/spec-kit/ticket-archiver/internal/transcript"
	"github.com/spec-kit/ticket-archiver/internal/workerpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sources, err := render.LoadSources(cfg.Archive.TemplatesDir, cfg.Archive.TranscriptTemplate, cfg.Archive.HTMLEnabled)
	if err != nil {
		logger.Fatal("failed to load transcript templates", zap.Error(err))
	}

	codec, err := crypto.NewCodec(cfg.Archive.EncryptionKey)
	if err != nil {
		logger.Fatal("failed to init codec", zap.Error(err))
	}

	catalog, err := locale.NewCatalog()
	if err != nil {
		logger.Fatal("failed to init locale catalog", zap.Error(err))
	}

	archiveRepo := repository.NewCachedArchiveRepository(
		repository.NewArchiveRepository(pool),
		redis.Store(),
		cfg.Redis.SettingsTTL(),
		logger,
	)
	auditRepo := repository.NewAuditLogRepository(pool)
	gateway := platform.NewClient(cfg.Platform, logger)

	cryptoPool := workerpool.New("crypto", cfg.Archive.CryptoWorkers, cfg.Archive.CryptoQueueDepth, logger)
	transcriptPool := workerpool.New("transcript", cfg.Archive.TranscriptWorkers, cfg.Archive.TranscriptQueueSize, logger)

	superUsers := make([]domain.UserID, 0, len(cfg.Archive.SuperUserIDs))
	for _, id := range cfg.Archive.SuperUserIDs {
		superUsers = append(superUsers, domain.UserID(id))
	}

	pipeline, err := transcript.New(transcript.Deps{
		Repo:           archiveRepo,
		Gateway:        gateway,
		Codec:          codec,
		CryptoPool:     cryptoPool,
		TranscriptPool: transcriptPool,
		Catalog:        catalog,
		Sources:        sources,
		SuperUsers:     superUsers,
		Clock:          time.Now,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		logger.Fatal("failed to build transcript pipeline", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	reconciler := reconcile.New(reconcile.Deps{
		Repo:       archiveRepo,
		Gateway:    gateway,
		Codec:      codec,
		CryptoPool: cryptoPool,
		Sink:       audit.NewLogger(auditRepo, logger),
		BotUserID:  domain.UserID(cfg.Archive.BotUserID),
		Clock:      time.Now,
		Logger:     logger,
		Metrics:    metrics,
	})
	reconciler.RegisterHandlers(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Transcripts:    handlers.NewTranscriptsHandler(pipeline),
		Events:         handlers.NewEventsHandler(dispatcher, logger),
		Audit:          handlers.NewAuditHandler(auditRepo),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	dispatcher.Wait()
	transcriptPool.Close()
	cryptoPool.Close()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
