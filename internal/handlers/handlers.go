package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/httpapi"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/middleware"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/queue"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/ratelimit"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/repository"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/service"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	ritualService  *service.RitualService
	catalogService *service.CatalogService
	db             *pgxpool.Pool
	cache          *redis.Client
	users          *repository.UserRepository
	sessions       *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, producer *queue.Producer, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	nightRepo := repository.NewNightSessionRepository(db)
	trackRepo := repository.NewTrackRepository(db)

	limiter := ratelimit.NewRedisLimiter(cache, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)

	auth := service.NewAuthService(userRepo, sessionRepo, cache, producer, cfg, log)
	ritual := service.NewRitualService(nightRepo, limiter, log)
	catalog := service.NewCatalogService(trackRepo, store, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		ritualService:  ritual,
		catalogService: catalog,
		db:             db,
		cache:          cache,
		users:          userRepo,
		sessions:       sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/magiclink", h.SendMagicLink)
		auth.POST("/recover", h.SendRecovery)
		auth.POST("/token", h.ExchangeCode)
		auth.POST("/verify", h.VerifyOTP)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.users, h.sessions))
		protected.GET("/me", h.Me)
		protected.POST("/password", h.UpdatePassword)
	}

	ritual := v1.Group("/ritual")
	// The write path orders its own admission checks; see
	// RecordNightSession.
	ritual.POST("/sessions", h.RecordNightSession)

	ritualRead := v1.Group("/ritual")
	ritualRead.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	ritualRead.GET("/sessions", h.ListNightSessions)
	ritualRead.GET("/streak", h.NightStreak)

	account := v1.Group("/account")
	account.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	account.POST("/delete", h.DeleteAccount)

	catalog := v1.Group("/catalog")
	catalog.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	catalog.GET("/tracks", h.ListTracks)
}

// NoMethod keeps the wire contract for clients that POST-only
// endpoints with the wrong verb.
func NoMethod(c *gin.Context) {
	httpapi.Error(c, http.StatusMethodNotAllowed, httpapi.CodeMethodNotAllowed, "method not allowed")
}
