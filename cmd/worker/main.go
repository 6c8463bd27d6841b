package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/db"
	"github.com/energy-marketplace/backend/internal/events"
	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// The worker watches the clock, not the books. Expired offers and lapsed
// delivery deadlines are announced on the event stream so interested parties
// can act, but every state change still goes through the API with the
// caller's authorization. The worker never mutates offers or trades itself.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	offerRepo := repositories.NewOfferRepo(pool)
	tradeRepo := repositories.NewTradeRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)

	log.Info("worker started", zap.Duration("interval", cfg.WorkerInterval))

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			now := cfg.Epoch(time.Now())
			runOfferExpiry(ctx, offerRepo, rdb, publisher, now, log)
			runDeadlineWatch(ctx, tradeRepo, rdb, publisher, now, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runOfferExpiry(ctx context.Context, offerRepo *repositories.OfferRepo, rdb *redis.Client, publisher events.Publisher, now int64, log *zap.Logger) {
	offers, err := offerRepo.ListExpiredActive(ctx, now, 100)
	if err != nil {
		log.Error("failed to list expired offers", zap.Error(err))
		return
	}

	for _, offer := range offers {
		// Announce each expiry once across worker restarts
		key := fmt.Sprintf("worker:notified:offer_expired:%d", offer.ID)
		ok, err := rdb.SetNX(ctx, key, 1, 7*24*time.Hour).Result()
		if err != nil || !ok {
			continue
		}

		log.Info("offer expired",
			zap.Int64("offer_id", offer.ID),
			zap.Int64("expires_at", offer.ExpiresAt),
		)
		_ = publisher.Publish(ctx, events.StreamMarketplace, events.Event{
			Type: events.EventOfferExpired,
			Payload: map[string]any{
				"offer_id":   offer.ID,
				"producer":   offer.Producer.String(),
				"expires_at": offer.ExpiresAt,
			},
		})
	}
}

func runDeadlineWatch(ctx context.Context, tradeRepo *repositories.TradeRepo, rdb *redis.Client, publisher events.Publisher, now int64, log *zap.Logger) {
	trades, err := tradeRepo.ListDeadlineElapsed(ctx, now, 100)
	if err != nil {
		log.Error("failed to list trades past deadline", zap.Error(err))
		return
	}

	for _, trade := range trades {
		key := fmt.Sprintf("worker:notified:deadline:%d", trade.ID)
		ok, err := rdb.SetNX(ctx, key, 1, 7*24*time.Hour).Result()
		if err != nil || !ok {
			continue
		}

		log.Info("trade delivery deadline elapsed",
			zap.Int64("trade_id", trade.ID),
			zap.Int64("deadline", trade.DeliveryDeadline),
		)
		_ = publisher.Publish(ctx, events.StreamMarketplace, events.Event{
			Type: events.EventDeadlineElapsed,
			Payload: map[string]any{
				"trade_id": trade.ID,
				"buyer":    trade.Buyer.String(),
				"producer": trade.Producer.String(),
				"deadline": trade.DeliveryDeadline,
			},
		})
	}
}
