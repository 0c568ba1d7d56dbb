package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mathmindlabs/mathmind-backend/api/controllers"
	"github.com/mathmindlabs/mathmind-backend/api/middleware"
	"github.com/mathmindlabs/mathmind-backend/internal/auth"
	"github.com/mathmindlabs/mathmind-backend/pkg/auth/session"
	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           pinger
	Redis        *redis.Client
	BigQuery     pinger
	Sessions     session.AccessSessionChecker
	Auth         auth.Service
	Calculations controllers.CalculationService
	Assistant    interface {
		Complete(ctx context.Context, userMessage string) (string, error)
	}
	Wolfram interface {
		Result(ctx context.Context, query string) (string, error)
	}
}

// NewRouter assembles the HTTP surface of the API service.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var redisPinger pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(deps.DB, redisPinger, deps.BigQuery)))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/google", controllers.AuthGoogleLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/users/me", controllers.CurrentUser(deps.Auth, logg))

		r.Route("/calculations", func(r chi.Router) {
			r.Post("/", controllers.CalculationSave(deps.Calculations, logg))
			r.Get("/", controllers.CalculationList(deps.Calculations, logg))
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Post("/chat", controllers.AssistantChat(deps.Assistant, logg))
			r.Get("/compute", controllers.AssistantCompute(deps.Wolfram, logg))
			r.Post("/compute", controllers.AssistantCompute(deps.Wolfram, logg))
		})
	})

	return r
}
