// Точка входа videostream — backend загрузки и каталога видео.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// инициализирует хранилище медиа, identity provider и JWT verifier,
// создаёт сервисный слой и запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/videostream/internal/api/handlers"
	"github.com/bigkaa/videostream/internal/api/middleware"
	"github.com/bigkaa/videostream/internal/api/openapi"
	"github.com/bigkaa/videostream/internal/config"
	"github.com/bigkaa/videostream/internal/database"
	"github.com/bigkaa/videostream/internal/identity"
	"github.com/bigkaa/videostream/internal/mediastore"
	"github.com/bigkaa/videostream/internal/repository"
	"github.com/bigkaa/videostream/internal/server"
	"github.com/bigkaa/videostream/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("videostream запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("media_backend", cfg.MediaBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Встроенный OpenAPI контракт должен быть валиден
	if _, err := openapi.Load(ctx); err != nil {
		logger.Error("Невалидный OpenAPI контракт", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Подключение к PostgreSQL (pgxpool)
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5.1 Адаптер pgxpool → *sql.DB для topologymetrics (проверка через общий пул)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 6. Хранилище медиа
	gateway, err := newGateway(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища медиа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	videoRepo := repository.NewVideoRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// 8. Services
	cache := service.NewCacheService(cfg.CacheMaxSize, cfg.CacheTTL)
	ingestionSvc := service.NewIngestionService(gateway.Gateway, videoRepo, cache, logger)
	catalogSvc := service.NewCatalogService(videoRepo, cache, service.Pagination{
		DefaultLimit: cfg.PageSizeDefault,
		MaxLimit:     cfg.PageSizeMax,
	}, logger)
	profileSvc := service.NewProfileService(userRepo, logger)

	providerClient := identity.NewProviderClient(cfg.AuthURL, cfg.AuthAPIKey, cfg.AuthTimeout, logger)
	authSvc := service.NewAuthService(providerClient, profileSvc, cfg.AuthRedirectURL, logger)

	// 9. JWT verifier (JWKS с фоновым обновлением до отмены ctx)
	verifier, err := identity.NewJWTVerifier(ctx, cfg.JWTJWKSURL, identity.VerifierOptions{
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		Leeway:     cfg.JWTLeeway,
		HMACSecret: cfg.JWTSecret,
	}, cfg.JWKSClientTimeout, cfg.JWKSRefreshInterval, logger)
	if err != nil {
		logger.Error("Ошибка создания JWT verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT verifier инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 10. Readiness checkers (PostgreSQL + identity provider + хранилище)
	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		identity.NewJWKSReadinessChecker(cfg.JWTJWKSURL, cfg.JWKSClientTimeout),
		mediastore.NewReadinessChecker(gateway.Backend),
	)

	// 11. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		ingestionSvc,
		catalogSvc,
		profileSvc,
		authSvc,
		cfg.MediaMaxUploadSize,
		logger,
	)

	// 12. topologymetrics — мониторинг зависимостей (PostgreSQL + identity provider)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"videostream",
		cfg.DephealthGroup,
		pgDB,
		service.PostgresURL(cfg.DBHost, cfg.DBPort, cfg.DBName),
		cfg.AuthURL,
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 13. Создание и запуск HTTP-сервера
	authRateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestLimit: cfg.AuthRateLimit,
		WindowSize:   cfg.AuthRateWindow,
	})
	srv := server.New(cfg, logger, apiHandler,
		handlers.RouteMiddleware{
			Authenticate:  middleware.Authenticate(verifier, logger),
			Bearer:        middleware.BearerOnly(),
			AuthRateLimit: authRateLimit,
		},
		middleware.Recoverer(logger),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("videostream остановлен")
}

// mediaComponents — шлюз хранилища и его бэкенд (для readiness).
type mediaComponents struct {
	Gateway *mediastore.Gateway
	Backend mediastore.Backend
}

// newGateway создаёт бэкенд хранилища (S3 или MinIO) и уведомление транскодера (SQS).
func newGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mediaComponents, error) {
	awsCfg, err := mediastore.LoadAWSConfig(ctx, mediastore.AWSOptions{
		Region:    cfg.MediaRegion,
		Endpoint:  cfg.MediaEndpoint,
		AccessKey: cfg.MediaAccessKey,
		SecretKey: cfg.MediaSecretKey,
	})
	if err != nil {
		return nil, err
	}

	var backend mediastore.Backend
	switch cfg.MediaBackend {
	case config.MediaBackendMinio:
		backend, err = mediastore.NewMinioBackend(ctx, mediastore.MinioOptions{
			Endpoint:  cfg.MediaEndpoint,
			AccessKey: cfg.MediaAccessKey,
			SecretKey: cfg.MediaSecretKey,
			UseSSL:    cfg.MediaUseSSL,
			Region:    cfg.MediaRegion,
			Bucket:    cfg.MediaBucket,
		}, logger)
		if err != nil {
			return nil, err
		}
	default:
		backend = mediastore.NewS3Backend(awsCfg, cfg.MediaBucket, cfg.MediaEndpoint, logger)
	}

	var opts []mediastore.GatewayOption
	if cfg.TranscodeQueueURL != "" {
		opts = append(opts, mediastore.WithNotifier(
			mediastore.NewSQSNotifier(awsCfg, cfg.TranscodeQueueURL, logger),
			cfg.TranscodeNotificationURL,
		))
		logger.Info("Уведомления транскодера включены", slog.String("queue_url", cfg.TranscodeQueueURL))
	}

	gateway := mediastore.NewGateway(backend,
		mediastore.URLBuilder{
			PublicURL:      cfg.MediaPublicURL,
			Profile:        cfg.MediaStreamingProfile,
			ThumbnailWidth: cfg.MediaThumbnailWidth,
		},
		mediastore.Constraints{
			AllowedFormats: cfg.MediaAllowedFormats,
			MaxSize:        cfg.MediaMaxUploadSize,
		},
		logger,
		opts...,
	)

	logger.Info("Хранилище медиа инициализировано",
		slog.String("backend", backend.Name()),
		slog.String("bucket", cfg.MediaBucket),
	)
	return &mediaComponents{Gateway: gateway, Backend: backend}, nil
}
