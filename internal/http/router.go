package http

import (
	"time"

	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/http/handlers"
	"github.com/energy-marketplace/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	offerHandler *handlers.OfferHandler,
	tradeHandler *handlers.TradeHandler,
	creditHandler *handlers.CreditHandler,
	fundsHandler *handlers.FundsHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/token", authHandler.IssueToken)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Platform
	protected.Get("/platform", offerHandler.GetPlatform)
	protected.Post("/platform/fee-rate", offerHandler.SetFeeRate)
	protected.Post("/platform/fee-recipient", offerHandler.SetFeeRecipient)
	protected.Post("/platform/attestation-authority", creditHandler.SetAttestationAuthority)
	protected.Get("/platform/fee-preview", offerHandler.PreviewFee)

	// Offers
	protected.Post("/offers", offerHandler.CreateOffer)
	protected.Get("/offers", offerHandler.ListOffers)
	protected.Get("/offers/next-id", offerHandler.NextOfferID)
	protected.Get("/offers/:id", offerHandler.GetOffer)
	protected.Post("/offers/:id/cancel", offerHandler.CancelOffer)
	protected.Post("/offers/:id/accept", offerHandler.AcceptOffer)
	protected.Get("/offers/:id/events", offerHandler.GetOfferEvents)

	// Trades
	protected.Get("/trades/next-id", tradeHandler.NextTradeID)
	protected.Get("/trades/by-offer/:offerId", tradeHandler.GetTradeByOffer)
	protected.Get("/trades/:id", tradeHandler.GetTrade)
	protected.Post("/trades/:id/proof", tradeHandler.SubmitProof)
	protected.Post("/trades/:id/release", tradeHandler.ReleaseFunds)
	protected.Post("/trades/:id/dispute", tradeHandler.InitiateDispute)
	protected.Post("/trades/:id/cancel", tradeHandler.CancelTrade)
	protected.Post("/trades/:id/resolve", tradeHandler.ResolveDispute)
	protected.Get("/trades/:id/events", tradeHandler.GetTradeEvents)
	protected.Get("/trades/:id/minted", creditHandler.IsTradeMinted)

	// Credits
	protected.Post("/credits/register", creditHandler.Register)
	protected.Post("/credits/mint", creditHandler.Mint)
	protected.Post("/credits/transfer", creditHandler.Transfer)
	protected.Post("/credits/burn", creditHandler.Burn)
	protected.Get("/credits/supply", creditHandler.TotalSupply)
	protected.Get("/credits/accounts/:account", creditHandler.GetAccount)
	protected.Get("/credits/accounts/:account/balance", creditHandler.BalanceOf)

	// Funds
	protected.Get("/funds/accounts/:account/balance", fundsHandler.BalanceOf)
	protected.Post("/funds/deposit", fundsHandler.Deposit)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
