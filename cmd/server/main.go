// Package main runs the ForgeCloud API server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/forgecloud/backend/config"
	"github.com/forgecloud/backend/internal/auth"
	"github.com/forgecloud/backend/internal/middleware"
	"github.com/forgecloud/backend/internal/organizations"
	"github.com/forgecloud/backend/internal/projects"
	"github.com/forgecloud/backend/internal/sentinel"
	"github.com/forgecloud/backend/internal/worker"
	"github.com/forgecloud/backend/internal/workspace"
	"github.com/forgecloud/backend/pkg/database"
	"github.com/forgecloud/backend/pkg/queue"
	"github.com/forgecloud/backend/pkg/redis"
	"github.com/forgecloud/backend/pkg/response"
	"github.com/forgecloud/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	auditPublisher := sentinel.NewQueuePublisher(jobQueue, logger)

	// Users and workspace resolution
	userRepo := auth.NewRepository(pool)
	membershipRepo := organizations.NewMembershipRepository(pool)
	resolver := workspace.NewResolver(userRepo, membershipRepo)
	guard := organizations.NewGuard(membershipRepo)

	authService := auth.NewService(userRepo, membershipRepo, resolver, jwtService, auditPublisher, logger)
	authHandler := auth.NewHandler(authService, s3Client, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgService := organizations.NewService(orgRepo, membershipRepo, guard, organizations.NoopInviter{}, auditPublisher, logger)
	orgHandler := organizations.NewHandler(orgService)

	// Projects
	projectRepo := projects.NewRepository(pool)
	projectService := projects.NewService(projectRepo, resolver, logger)
	projectHandler := projects.NewHandler(projectService)

	// Sentinel (log sources and ingestion)
	sourceRepo := sentinel.NewSourceRepository(pool)
	entryRepo := sentinel.NewEntryRepository(pool)
	sentinelService := sentinel.NewService(sourceRepo, entryRepo, projectRepo, resolver, logger)
	sentinelHandler := sentinel.NewHandler(sentinelService)

	// Audit worker (persists queued audit events as log entries)
	auditor := sentinel.NewAuditor(sourceRepo, entryRepo, logger)
	auditProcessor := worker.NewAuditProcessor(auditor, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Session and profile
		api.GET("/auth/me", authHandler.Me)
		api.PATCH("/auth/me", authHandler.UpdateMe)
		api.PUT("/auth/active-organization", authHandler.SetActiveOrganization)
		api.POST("/auth/avatar", authHandler.UploadAvatar)
		api.POST("/auth/avatar/upload-url", authHandler.GenerateAvatarUploadURL)

		// Users (for member pickers)
		api.GET("/users", authHandler.List)

		// Organizations
		api.GET("/organizations", orgHandler.ListMyOrganizations)
		api.GET("/organizations/all", orgHandler.ListAllOrganizations)
		api.POST("/organizations", orgHandler.CreateOrganization)
		api.GET("/organizations/:id", orgHandler.GetOrganization)
		api.PATCH("/organizations/:id", orgHandler.UpdateOrganization)
		api.DELETE("/organizations/:id", orgHandler.DeleteOrganization)
		api.GET("/organizations/:id/members", orgHandler.ListMembers)
		api.POST("/organizations/:id/invitations", orgHandler.Invite)

		// Projects (scoped to the caller's active organization)
		api.GET("/projects", projectHandler.List)
		api.POST("/projects", projectHandler.Create)
		api.GET("/projects/:id", projectHandler.Get)
		api.PATCH("/projects/:id", projectHandler.Update)

		// Sentinel (log sources and entries, same scoping)
		api.GET("/sentinel/sources", sentinelHandler.ListSources)
		api.POST("/sentinel/sources", sentinelHandler.CreateSource)
		api.GET("/sentinel/logs", sentinelHandler.ListLogs)
		api.POST("/sentinel/logs", sentinelHandler.Ingest)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process audit worker; cmd/worker runs the same loop standalone.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go auditProcessor.Run(workerCtx)
	logger.Info("audit worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
