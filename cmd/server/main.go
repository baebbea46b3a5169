package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arnavshah/intervention-scheduler-api/pkg/auth"
	"github.com/arnavshah/intervention-scheduler-api/pkg/config"
	"github.com/arnavshah/intervention-scheduler-api/pkg/database"
	"github.com/arnavshah/intervention-scheduler-api/pkg/handlers"
	"github.com/arnavshah/intervention-scheduler-api/pkg/logging"
	"github.com/arnavshah/intervention-scheduler-api/pkg/server"
	"github.com/arnavshah/intervention-scheduler-api/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Setup(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}

	authn := auth.New(cfg.JWTSecret, cfg.APIMasterSecret)
	if err := authn.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		logger.Error().Err(err).Msg("ensure admin")
	}

	sessions := session.NewStore(cfg.SessionTTL, logger)
	stop := make(chan struct{})
	go sessions.RunSweeper(time.Minute, stop)

	h := handlers.New(db, authn, sessions, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("could not run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
