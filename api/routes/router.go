package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukayetu/dukayetu-backend/api/controllers"
	webhookcontrollers "github.com/dukayetu/dukayetu-backend/api/controllers/webhooks"
	"github.com/dukayetu/dukayetu-backend/api/middleware"
	authsvc "github.com/dukayetu/dukayetu-backend/internal/auth"
	cartsvc "github.com/dukayetu/dukayetu-backend/internal/cart"
	catalogsvc "github.com/dukayetu/dukayetu-backend/internal/catalog"
	ordersvc "github.com/dukayetu/dukayetu-backend/internal/orders"
	paymentsvc "github.com/dukayetu/dukayetu-backend/internal/payments"
	mpesawebhook "github.com/dukayetu/dukayetu-backend/internal/webhooks/mpesa"
	"github.com/dukayetu/dukayetu-backend/pkg/config"
	"github.com/dukayetu/dukayetu-backend/pkg/db"
	"github.com/dukayetu/dukayetu-backend/pkg/enums"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/dukayetu/dukayetu-backend/pkg/metrics"
	pkgredis "github.com/dukayetu/dukayetu-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBClient    *db.Client
	RedisClient *pkgredis.Client
	Registry    *prometheus.Registry

	AuthService    authsvc.Service
	CatalogService catalogsvc.Service
	CartService    cartsvc.Service
	OrderService   ordersvc.Service
	PaymentService paymentsvc.Service
	WebhookService mpesawebhook.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var dbPinger, redisPinger interface {
		Ping(ctx context.Context) error
	}
	if deps.DBClient != nil {
		dbPinger = deps.DBClient
	}
	if deps.RedisClient != nil {
		redisPinger = deps.RedisClient
	}
	var idemStore pkgredis.IdempotencyStore
	if deps.RedisClient != nil {
		idemStore = deps.RedisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	if deps.Registry != nil {
		httpMetrics := metrics.NewHTTPMetrics(deps.Registry)
		r.Use(httpMetrics.Middleware)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, redisPinger, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(idemStore, logg)).Post("/register", controllers.Register(deps.AuthService, logg))
		r.Post("/login", controllers.Login(deps.AuthService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mpesa/{token}", webhookcontrollers.MpesaCallback(cfg.Mpesa, deps.WebhookService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.CatalogService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.CatalogService, logg))
		r.Get("/categories", controllers.ListCategories(deps.CatalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/products", controllers.CreateProduct(deps.CatalogService, logg))
				r.Post("/categories", controllers.CreateCategory(deps.CatalogService, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleCustomer, logg))
				r.Get("/cart", controllers.ViewCart(deps.CartService, logg))
				r.Post("/cart", controllers.AddCartItem(deps.CartService, logg))
				r.Post("/orders", controllers.PlaceOrder(deps.OrderService, logg))
				r.Post("/payments/initiate", controllers.InitiatePayment(deps.PaymentService, logg))
			})

			r.Get("/orders", controllers.ListOrders(deps.OrderService, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(deps.OrderService, logg))
			r.Get("/payments/status/{orderId}", controllers.PaymentStatus(deps.PaymentService, logg))
		})
	})

	return r
}
