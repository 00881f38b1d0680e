package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/config"
	"github.com/rohitmehra/OpenMentor/internal/handlers"
	"github.com/rohitmehra/OpenMentor/internal/repositories"
	"github.com/rohitmehra/OpenMentor/internal/routes"
	"github.com/rohitmehra/OpenMentor/internal/rtc"
	"github.com/rohitmehra/OpenMentor/internal/services"
	"github.com/rohitmehra/OpenMentor/internal/websocket"
)

const (
	dbConnectTimeout = 10 * time.Second
	shutdownTimeout  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Error().Err(err).Msg("config load failed")
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().Str("environment", cfg.Environment).Msg("starting server")

	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database setup failed")
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	sessionRepo := repositories.NewSessionRepository(db)
	participantRepo := repositories.NewParticipantRepository(db)
	chatRepo := repositories.NewChatLogRepository(db)
	fileRepo := repositories.NewSharedFileRepository(db)

	// RTC provider + presence hub
	provider := rtc.NewOpenViduProvider(cfg.RTCURL, cfg.RTCDomain, cfg.RTCSecret, cfg.RTCTimeout, logger)
	hub := websocket.NewHub(logger)

	// Services
	videoCallService := services.NewVideoCallService(sessionRepo, participantRepo, provider, hub, logger)
	chatService := services.NewChatService(chatRepo, sessionRepo, logger)
	fileService := services.NewSharedFileService(fileRepo, sessionRepo, logger)

	// Handlers
	videoCallHandler := handlers.NewVideoCallHandler(videoCallService, chatService, logger)
	chatHandler := handlers.NewChatHandler(chatService, logger)
	sharedFileHandler := handlers.NewSharedFileHandler(fileService, logger)
	presenceHandler := handlers.NewPresenceHandler(videoCallService, hub, logger)

	if err := routes.RegisterValidations(); err != nil {
		logger.Error().Err(err).Msg("validator registration failed")
		os.Exit(1)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	routes.RegisterPublicEndpoints(router)
	routes.RegisterProtectedEndpoints(router, videoCallHandler, chatHandler, sharedFileHandler, presenceHandler, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

func openDatabase(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := repositories.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Msg("database ready")
	return db, nil
}
