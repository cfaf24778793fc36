// Package server
//
// @title Shiftdesk API
// @version 1.0
// @description Volunteer events and weekly shift sign-up API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftdesk/shiftdesk/internal/assert"
	"github.com/shiftdesk/shiftdesk/internal/auth"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/events"
	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/seed"
	"github.com/shiftdesk/shiftdesk/internal/shifts"
)

// Enqueuer schedules background tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server represents the HTTP server
type Server struct {
	router        *gin.Engine
	db            *gorm.DB
	config        *config.Config
	logger        zerolog.Logger
	validator     *validator.Validate
	enqueuer      Enqueuer // nil disables deadline scheduling
	asynqClient   *asynq.Client
	eventsService *events.Service
	shiftsService *shifts.Service
	version       string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	err = seed.Run(context.Background(), db, seed.Options{
		AdminPassword: cfg.Seed.AdminPassword,
		DemoData:      cfg.Seed.DemoData,
		DemoSeed:      uint64(time.Now().UnixNano()),
	}, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	// Asynq client for deadline tasks; the worker picks them up
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	server, err := NewWithDB(cfg, db, zlog, version, asynqClient)
	if err != nil {
		asynqClient.Close()
		return nil, err
	}
	server.asynqClient = asynqClient
	return server, nil
}

// NewWithDB builds a server over an already migrated database
func NewWithDB(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger, version string, enqueuer Enqueuer) (*Server, error) {
	if err := initJWT(cfg, db, zlog); err != nil {
		return nil, err
	}

	server := &Server{
		db:            db,
		config:        cfg,
		logger:        zlog,
		validator:     newValidator(),
		enqueuer:      enqueuer,
		eventsService: events.NewService(db, zlog),
		shiftsService: shifts.NewService(db, zlog, time.Local),
		version:       version,
	}

	server.setupRouter()

	return server, nil
}

// initJWT uses the configured secret, or one generated on first start and
// persisted in the config singleton
func initJWT(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger) error {
	if cfg.Auth.JWTSecret != "" {
		auth.InitializeJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		zlog.Debug().Msg("Using JWT secret from environment")
		return nil
	}

	var stored models.Config
	err := db.First(&stored).Error
	if err == nil {
		auth.InitializeJWT(stored.JWTSecret, cfg.Auth.TokenTTL)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)
	assert.Length(secret, 64)

	if err := db.Create(&models.Config{JWTSecret: secret}).Error; err != nil {
		return fmt.Errorf("failed to persist JWT secret: %w", err)
	}
	auth.InitializeJWT(secret, cfg.Auth.TokenTTL)
	zlog.Info().Msg("Generated JWT secret on first start")
	return nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8     // Reduced for SQLite efficiency
		maxIdleConns      = 4     // Reduced proportionally
		connMaxLifetime   = 300   // 5 minutes
		busyTimeout       = 5000  // 5 seconds
		cacheSize         = 10000 // 10MB
		walAutocheckpoint = 1000  // WAL auto-checkpoint pages
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			&zlog,
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	var walMode string
	db.Raw("PRAGMA journal_mode").Scan(&walMode)
	zlog.Debug().Str("journal_mode", walMode).Str("path", cfg.Database.URL).Msg("Database opened")

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	origins := s.config.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", "Authorization", adminTokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	// Public reads, cacheable by clients
	public := api.Group("")
	public.Use(CacheControlMiddleware("public, max-age=30"))
	{
		public.GET("/events", s.listEvents)
		public.GET("/events/:id", s.getEvent)
		public.GET("/shifts", s.listShifts)
	}

	// Authenticated API routes (JWT required)
	authed := api.Group("")
	authed.Use(CacheControlMiddleware("no-store"))
	authed.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		authed.GET("/auth/me", s.getCurrentUser)
		authed.PATCH("/auth/me", s.updateCurrentUser)

		authed.POST("/events/:id/signup", s.joinEvent)
		authed.DELETE("/events/:id/signup", s.leaveEvent)

		authed.GET("/shifts/mine", s.myShifts)
		authed.POST("/shifts/:id/signup", s.signUpShift)
		authed.DELETE("/shifts/signups/:id", s.cancelShiftSignup)

		admin := authed.Group("/admin")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/students", s.listStudents)
			admin.POST("/events", s.createEvent)
			admin.PATCH("/events/:id", s.updateEvent)
			admin.DELETE("/events/:id", s.deleteEvent)
			admin.POST("/shifts", s.createShift)
			admin.GET("/system", s.getSystemInfo)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "shiftdesk-api",
		"version":   s.version,
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	if s.asynqClient != nil {
		if err := s.asynqClient.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
