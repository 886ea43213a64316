package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/syncodehq/syncode/internal/auth"
	"github.com/syncodehq/syncode/internal/config"
	"github.com/syncodehq/syncode/internal/http/handlers"
	"github.com/syncodehq/syncode/internal/http/middlewares"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/observability"
	"github.com/syncodehq/syncode/internal/queue"
	"github.com/syncodehq/syncode/internal/queue/redisclient"
	"github.com/syncodehq/syncode/internal/repo/memory"
	"github.com/syncodehq/syncode/internal/repo/postgres"
	"github.com/syncodehq/syncode/internal/security"
	"github.com/syncodehq/syncode/internal/service"
)

// NewRouter wires the whole API surface. pool == nil falls back to the
// in-memory store (dev/tests); rdb == nil sends reset mail through the
// in-process log notifier instead of the queue.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redisclient.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	reg := prometheus.NewRegistry()
	metrics := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB is plenty for credentials
	r.Use(metrics.GinHandleMiddleware())
	r.Use(otelgin.Middleware("syncode-api"))

	// health
	ping := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up the credential store
	var store service.CredentialStore

	if pool != nil {
		store = postgres.NewUsersRepo(pool, metrics)
	} else {
		store = memory.NewUsersRepo()
	}

	// core components
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	resets := auth.NewResetTokens(cfg.ResetTokenPepper, cfg.ResetTokenTTL())

	// reset delivery: queue when Redis is around, log notifier otherwise
	var sender service.ResetSender

	if rdb != nil {
		sender = queue.NewProducer(rdb)
	} else {
		sender = notifications.NewProtectedNotifier(
			notifications.NewLogNotifier(log),
			notifications.ProtectedNotifierConfig{},
		)
	}

	svc := service.NewAuth(store, hasher, tokens, resets, sender, cfg.FrontendURL, log)

	authHandler := handlers.NewAuthHandler(svc, cfg, metrics)
	guard := middlewares.NewAuthMiddleware(tokens, store)

	limiter := middlewares.NewRateLimiter(
		cfg.AuthRateLimit,
		time.Duration(cfg.AuthRateWindowSeconds)*time.Second,
	)
	limited := limiter.RateLimiterMiddleware(middlewares.KeyByIP)

	api := r.Group("/api/auth")
	{
		api.POST("/register", limited, authHandler.Register)
		api.POST("/login", limited, authHandler.Login)
		api.GET("/me", guard.RequireAuth(), authHandler.Me)
		api.POST("/forgotpassword", limited, authHandler.ForgotPassword)
		api.PUT("/resetpassword/:resettoken", limited, authHandler.ResetPassword)
		api.PUT("/updatepassword", guard.RequireAuth(), authHandler.UpdatePassword)
	}

	return r
}
