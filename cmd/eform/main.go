package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sirreidlos/e-form/internal/config"
	"github.com/sirreidlos/e-form/internal/eform/broadcast"
	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/handler"
	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/service"
	"github.com/sirreidlos/e-form/internal/middleware"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting e-form service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Form{},
		&entity.Response{},
	); err != nil {
		zapLogger.Fatal("Failed to migrate tables", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	hub := broadcast.NewHub(broadcast.DefaultCapacity, zapLogger)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, hub, cfg, zapLogger)

	if services.Media.Enabled() {
		if err := services.Media.EnsureBucket(context.Background()); err != nil {
			zapLogger.Warn("Failed to ensure media bucket", zap.Error(err))
		}
	}

	handlers := handler.NewHandlers(services, hub, zapLogger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	// Close the hub first so open stream sessions drain and finish
	// before the HTTP server stops accepting writes.
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Accounts (no auth)
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)
	r.POST("/refresh", h.Auth.Refresh)

	// Form reads admit anonymous requests; visibility is enforced per
	// form state.
	optional := r.Group("", middleware.OptionalJWTAuth(cfg.JWT.Secret))
	{
		optional.GET("/form/:id", h.Form.Get)
	}

	authorized := r.Group("", middleware.JWTAuth(cfg.JWT.Secret))
	{
		authorized.GET("/forms", h.Form.List)
		authorized.POST("/form", h.Form.Create)
		authorized.PUT("/form/:id", h.Form.Update)
		authorized.DELETE("/form/:id", h.Form.Delete)

		authorized.POST("/response/:id", h.Response.Submit)
		authorized.GET("/response/:id", h.Response.List)
		authorized.DELETE("/response/:id", h.Response.Delete)
		authorized.GET("/response/:id/export", h.Response.Export)
		authorized.GET("/chart/:id", h.Response.Chart)

		// Supports query param token for EventSource clients.
		authorized.GET("/stream/:id", h.Stream.Stream)

		authorized.POST("/upload", h.Upload.Upload)
	}

	r.GET("/media/:object", h.Upload.Serve)
}
