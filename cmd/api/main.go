package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/db"
	"github.com/energy-marketplace/backend/internal/events"
	apphttp "github.com/energy-marketplace/backend/internal/http"
	"github.com/energy-marketplace/backend/internal/http/handlers"
	"github.com/energy-marketplace/backend/internal/ledger"
	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/energy-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	offerRepo := repositories.NewOfferRepo(pool)
	tradeRepo := repositories.NewTradeRepo(pool)
	creditRepo := repositories.NewCreditRepo(pool)
	platformRepo := repositories.NewPlatformRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Seed the platform config row on first boot
	if err := platformRepo.Seed(ctx, cfg.AdminAccount, cfg.FeeRecipientAccount, cfg.PlatformFeeBPS); err != nil {
		log.Fatal("failed to seed platform config", zap.Error(err))
	}

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Settlement ledger
	funds := ledger.New(pool)

	// Services
	tradeService := services.NewTradeService(pool, tradeRepo, platformRepo, auditRepo, funds, publisher, cfg, log)
	offerService := services.NewOfferService(pool, offerRepo, platformRepo, auditRepo, tradeService, funds, publisher, cfg, log)
	creditService := services.NewCreditService(pool, creditRepo, platformRepo, auditRepo, tradeRepo, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, log)
	offerHandler := handlers.NewOfferHandler(offerService, log)
	tradeHandler := handlers.NewTradeHandler(tradeService, log)
	creditHandler := handlers.NewCreditHandler(creditService, log)
	fundsHandler := handlers.NewFundsHandler(funds, platformRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, offerHandler, tradeHandler, creditHandler, fundsHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
