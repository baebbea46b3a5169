package handler

import (
	"net/http"
	"sync"
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

var (
	r        *gin.Engine
	sessions *session.Store

	sweepMu   sync.Mutex
	lastSweep time.Time
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Setup(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}

	authn := auth.New(cfg.JWTSecret, cfg.APIMasterSecret)
	_ = authn.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, logger)

	// Sessions only survive while one instance stays warm; /api/validate is the
	// stateless path for this deployment
	sessions = session.NewStore(cfg.SessionTTL, logger)

	gin.SetMode(gin.ReleaseMode)
	r = server.NewRouter(handlers.New(db, authn, sessions, logger))
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	sweepIfDue()
	r.ServeHTTP(w, req)
}

// sweepIfDue drops idle sessions at most once a minute, as there is no background sweeper here
func sweepIfDue() {
	sweepMu.Lock()
	defer sweepMu.Unlock()
	if time.Since(lastSweep) < time.Minute {
		return
	}
	lastSweep = time.Now()
	sessions.Sweep()
}
