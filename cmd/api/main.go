package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docpay/docs"
	"docpay/internal/config"
	"docpay/internal/database"
	"docpay/internal/database/migration"
	handlers "docpay/internal/http/handler"
	"docpay/internal/http/middleware"
	"docpay/internal/otel"
	"docpay/internal/payment"
	"docpay/internal/repository/postgres"
	"docpay/internal/service"
	"docpay/internal/storage"
)

// @title DocPay API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// PostgreSQL connection with pooling via database/sql
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// S3-compatible object storage for cover images
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Payment gateway: in-process simulator for demo deployments, network
	// client otherwise.
	var gateway payment.Gateway
	if cfg.Payment.Mode == "simulated" {
		gateway = payment.NewSimulated(
			payment.WithDelay(time.Duration(cfg.Payment.SimulatedDelayMs) * time.Millisecond))
	} else {
		gateway, err = payment.NewHTTP(cfg.Payment)
		if err != nil {
			log.Fatalf("failed to initialize payment gateway: %v", err)
		}
	}

	// Repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	purchaseRepo := postgres.NewPurchasePostgres(db)
	grantRepo := postgres.NewAccessGrantPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, purchaseRepo, logger)
	purchaseSvc := service.NewPurchaseService(docRepo, purchaseRepo, grantRepo, gateway, cfg.Payment.Currency, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	prom, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(prom.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, docSvc, purchaseSvc, prom.ObservePurchase)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
