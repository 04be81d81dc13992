// Точка входа сервиса учёта охраны труда (novedades, accidentes de trabajo,
// enfermería, catálogos).
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// собирает PermissionGate, рабочее пространство экранов и API handlers,
// запускает topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Maicol2810/sistemanovedades2.0/internal/api/handlers"
	"github.com/Maicol2810/sistemanovedades2.0/internal/api/middleware"
	"github.com/Maicol2810/sistemanovedades2.0/internal/config"
	"github.com/Maicol2810/sistemanovedades2.0/internal/database"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/recordfilter"
	"github.com/Maicol2810/sistemanovedades2.0/internal/server"
	"github.com/Maicol2810/sistemanovedades2.0/internal/service"
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
	logger.Info("Sistema de novedades запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("SN_DEPHEALTH_GROUP") == "" {
		logger.Warn("SN_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. PermissionGate
	gate, err := rbac.NewGate(cfg.AuthzPolicyPath)
	if err != nil {
		logger.Error("Ошибка загрузки политики доступа", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.AuthzPolicyPath != "" {
		logger.Info("Политика доступа загружена", slog.String("path", cfg.AuthzPolicyPath))
	}

	// 6. Хранилища и рабочее пространство экранов
	stores, err := service.PostgresStores(pool)
	if err != nil {
		logger.Error("Ошибка создания репозиториев", slog.String("error", err.Error()))
		os.Exit(1)
	}
	workspace, err := service.NewWorkspace(service.WorkspaceConfig{
		Stores:   stores,
		Gate:     gate,
		Observer: service.NewMetricsObserver(prometheus.DefaultRegisterer),
		Options: service.ScreenOptions{
			Location:    cfg.Timezone,
			MissingDate: recordfilter.ParseMissingDatePolicy(cfg.MissingDatePolicy),
		},
		SessionMax: cfg.SessionMax,
		SessionTTL: cfg.SessionTTL,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания рабочего пространства", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Readiness checkers (PostgreSQL + OIDC)
	pgChecker := database.NewReadinessChecker(pool)
	oidcChecker := middleware.NewOIDCReadinessChecker(cfg.JWTJWKSURL, cfg.JWKSClientTimeout)
	healthHandler := handlers.NewHealthHandler(pgChecker, oidcChecker)

	apiHandler := handlers.NewAPIHandler(workspace, gate, healthHandler, logger)

	// 8. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(middleware.JWTConfig{
		JWKSURL:         cfg.JWTJWKSURL,
		Issuer:          cfg.JWTIssuer,
		Leeway:          cfg.JWTLeeway,
		RefreshInterval: cfg.JWKSRefreshInterval,
		ClientTimeout:   cfg.JWKSClientTimeout,
		Groups: rbac.GroupMapping{
			Admin:    cfg.RoleAdminGroups,
			HR:       cfg.RoleHRGroups,
			Nurse:    cfg.RoleNurseGroups,
			Readonly: cfg.RoleReadonlyGroups,
		},
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 9. topologymetrics — мониторинг зависимостей (PostgreSQL + OIDC)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "sistemanovedades",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		DatabaseURL:   cfg.DatabaseURL(),
		JWKSURL:       cfg.JWTJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("Sistema de novedades остановлен")
}
