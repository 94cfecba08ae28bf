package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playpalm/playpalm-backend/api/controllers"
	"github.com/playpalm/playpalm-backend/api/middleware"
	"github.com/playpalm/playpalm-backend/internal/auth"
	"github.com/playpalm/playpalm-backend/internal/catalog"
	"github.com/playpalm/playpalm-backend/internal/users"
	"github.com/playpalm/playpalm-backend/pkg/config"
	"github.com/playpalm/playpalm-backend/pkg/logger"
	"github.com/playpalm/playpalm-backend/pkg/redis"
)

// Deps bundles everything the router wires together. DB, Redis, and the
// metrics registry are optional; nil disables the matching surface.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Catalog catalog.Service
	Users   users.Service
	Auth    auth.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Get("/", controllers.Root(cfg))
	r.Get("/health", controllers.Health(cfg, logg, deps.DB, redisPinger(deps.Redis)))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.LoginRateLimit(loginPolicy, limiterStore(deps.Redis), logg)).
				Post("/login", controllers.AuthLogin(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{id}", controllers.GetProduct(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))

				r.Get("/search", controllers.SearchProducts(deps.Catalog, logg))
				r.Put("/{id}", controllers.UpdateProduct(deps.Catalog, logg))
				r.Put("/{id}/stock", controllers.UpdateProductStock(deps.Catalog, logg))
				r.Put("/{id}/stock/reduce", controllers.ReduceProductStock(deps.Catalog, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManagerOrAdmin(logg))
					r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
					r.Put("/{id}/price", controllers.UpdateProductPrice(deps.Catalog, logg))
					r.Delete("/{id}", controllers.DeleteProduct(deps.Catalog, logg))
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/me", controllers.CurrentUser(deps.Users, logg))
			r.Put("/{id}", controllers.UpdateUser(deps.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManagerOrAdmin(logg))
				r.Get("/", controllers.ListUsers(deps.Users, logg))
				r.Post("/", controllers.CreateUser(deps.Users, logg))
			})
		})
	})

	return r
}

// nil *redis.Client must stay a nil interface, otherwise the health probe
// dereferences it.
func redisPinger(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func limiterStore(client *redis.Client) middleware.RateLimiterStore {
	if client == nil {
		return nil
	}
	return client
}
