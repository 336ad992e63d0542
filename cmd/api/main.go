package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/dukayetu/dukayetu-backend/api/routes"
	"github.com/dukayetu/dukayetu-backend/internal/auth"
	"github.com/dukayetu/dukayetu-backend/internal/cart"
	"github.com/dukayetu/dukayetu-backend/internal/catalog"
	"github.com/dukayetu/dukayetu-backend/internal/orders"
	"github.com/dukayetu/dukayetu-backend/internal/payments"
	"github.com/dukayetu/dukayetu-backend/internal/users"
	mpesawebhook "github.com/dukayetu/dukayetu-backend/internal/webhooks/mpesa"
	"github.com/dukayetu/dukayetu-backend/pkg/config"
	"github.com/dukayetu/dukayetu-backend/pkg/db"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/dukayetu/dukayetu-backend/pkg/migrate"
	"github.com/dukayetu/dukayetu-backend/pkg/mpesa"
	pkgredis "github.com/dukayetu/dukayetu-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mpesaClient, err := mpesa.NewClient(cfg.Mpesa)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mpesa client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:        cartRepo,
		CatalogRepo: catalogRepo,
		TxRunner:    dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		CartRepo: cartRepo,
		TxRunner: dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:      paymentRepo,
		OrderRepo: orderRepo,
		Gateway:   mpesaClient,
		TxRunner:  dbClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	webhookService, err := mpesawebhook.NewService(mpesawebhook.ServiceParams{
		PaymentRepo: paymentRepo,
		OrderRepo:   orderRepo,
		TxRunner:    dbClient,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DBClient:       dbClient,
			RedisClient:    redisClient,
			Registry:       registry,
			AuthService:    authService,
			CatalogService: catalogService,
			CartService:    cartService,
			OrderService:   orderService,
			PaymentService: paymentService,
			WebhookService: webhookService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if pending := <-errCh; pending != nil {
			shutdownErr = multierr.Append(shutdownErr, pending)
		}
		if shutdownErr != nil {
			logg.Error(ctx, "shutdown did not complete cleanly", shutdownErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
