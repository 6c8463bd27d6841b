package services

import (
	"context"
	"strconv"
	"time"

	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/events"
	"github.com/energy-marketplace/backend/internal/ledger"
	"github.com/energy-marketplace/backend/internal/models"
	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TradeService owns the trade record from creation through settlement:
// delivery attestations, fund release, refunds, and dispute arbitration.
// Every mutating operation locks the trade row, re-checks preconditions on
// the locked copy, and commits status, flags, and fund movement as one unit.
type TradeService struct {
	pool         *pgxpool.Pool
	tradeRepo    *repositories.TradeRepo
	platformRepo *repositories.PlatformRepo
	auditRepo    *repositories.AuditRepo
	funds        *ledger.Ledger
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
	now          func() int64
}

func NewTradeService(
	pool *pgxpool.Pool,
	tradeRepo *repositories.TradeRepo,
	platformRepo *repositories.PlatformRepo,
	auditRepo *repositories.AuditRepo,
	funds *ledger.Ledger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TradeService {
	return &TradeService{
		pool:         pool,
		tradeRepo:    tradeRepo,
		platformRepo: platformRepo,
		auditRepo:    auditRepo,
		funds:        funds,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
		now:          func() int64 { return cfg.Epoch(time.Now()) },
	}
}

// SetNowFunc overrides the epoch source. Test hook.
func (s *TradeService) SetNowFunc(now func() int64) {
	if now != nil {
		s.now = now
	}
}

// CreateTrade inserts a new escrow-status trade inside the caller's
// transaction. Only the offer-accept path calls this; it carries no
// authorization check of its own.
func (s *TradeService) CreateTrade(ctx context.Context, tx pgx.Tx, t *models.Trade) error {
	if t.Status == "" {
		t.Status = models.TradeStatusEscrow
	}
	if err := s.tradeRepo.WithTx(tx).Create(ctx, t); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &t.Buyer,
		ActorType:  "user",
		Action:     "trade_created",
		EntityType: "trade",
		EntityID:   entityID(t.ID),
		Meta:       map[string]any{"offer_id": t.OfferID, "deadline": t.DeliveryDeadline},
	})
	return nil
}

// transition asserts the move is reachable in the state machine before any
// write. Preconditions should already guarantee this; a violation here is a
// bug, reported as ErrInvalidState rather than written to storage.
func (s *TradeService) transition(from, to models.TradeStatus) error {
	if !models.IsValidTradeTransition(from, to) {
		s.log.Error("rejected invalid trade transition",
			zap.String("from", string(from)), zap.String("to", string(to)))
		return models.ErrInvalidState
	}
	return nil
}

// SubmitOracleProof stores the delivery attestation and advances the trade
// to verified. The proof payload is opaque; validity is the attestation
// authority's concern, not ours.
func (s *TradeService) SubmitOracleProof(ctx context.Context, caller uuid.UUID, tradeID int64, proof []byte) error {
	now := s.now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	trades := s.tradeRepo.WithTx(tx)
	trade, err := trades.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		return err
	}
	if err := trade.CanSubmitProof(caller, now); err != nil {
		return err
	}
	if err := s.transition(trade.Status, models.TradeStatusVerified); err != nil {
		return err
	}
	if err := trades.SetProof(ctx, tradeID, proof, models.TradeStatusVerified); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "proof_submitted",
		EntityType: "trade",
		EntityID:   entityID(tradeID),
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishStatus(ctx, trade, models.TradeStatusVerified)
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type:    events.EventProofSubmitted,
		Payload: map[string]any{"trade_id": tradeID, "submitted_by": caller.String()},
	})
	return nil
}

// ReleaseFunds pays the producer amount-after-fee out of custody, settles
// the retained fee to the fee recipient, and closes the trade as completed.
// Buyer only, verified only.
func (s *TradeService) ReleaseFunds(ctx context.Context, caller uuid.UUID, tradeID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	trades := s.tradeRepo.WithTx(tx)
	trade, err := trades.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		return err
	}
	if err := trade.CanRelease(caller); err != nil {
		return err
	}
	if err := s.transition(trade.Status, models.TradeStatusCompleted); err != nil {
		return err
	}
	if err := s.settleToProducer(ctx, tx, trade); err != nil {
		return err
	}
	if err := trades.MarkReleased(ctx, tradeID, models.TradeStatusCompleted); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "funds_released",
		EntityType: "trade",
		EntityID:   entityID(tradeID),
		Meta:       map[string]any{"amount": trade.AmountAfterFee, "producer": trade.Producer.String()},
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishStatus(ctx, trade, models.TradeStatusCompleted)
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventFundsReleased,
		Payload: map[string]any{
			"trade_id": tradeID,
			"producer": trade.Producer.String(),
			"amount":   trade.AmountAfterFee,
		},
	})
	return nil
}

// InitiateDispute freezes settlement until the administrator arbitrates.
func (s *TradeService) InitiateDispute(ctx context.Context, caller uuid.UUID, tradeID int64) error {
	now := s.now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	trades := s.tradeRepo.WithTx(tx)
	trade, err := trades.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		return err
	}
	if err := trade.CanDispute(caller, now); err != nil {
		return err
	}
	if err := s.transition(trade.Status, models.TradeStatusDisputed); err != nil {
		return err
	}
	if err := trades.MarkDisputed(ctx, tradeID); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "dispute_initiated",
		EntityType: "trade",
		EntityID:   entityID(tradeID),
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishStatus(ctx, trade, models.TradeStatusDisputed)
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type:    events.EventTradeDisputed,
		Payload: map[string]any{"trade_id": tradeID, "initiated_by": caller.String()},
	})
	return nil
}

// CancelTrade refunds the full escrowed amount to the buyer. Unlike every
// other deadline gate, this one requires the delivery window to have already
// elapsed: it is the buyer's exit when no proof arrived in time.
func (s *TradeService) CancelTrade(ctx context.Context, caller uuid.UUID, tradeID int64) error {
	now := s.now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	trades := s.tradeRepo.WithTx(tx)
	trade, err := trades.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		return err
	}
	if err := trade.CanCancel(caller, now); err != nil {
		return err
	}
	if err := s.transition(trade.Status, models.TradeStatusCancelled); err != nil {
		return err
	}
	if err := s.funds.WithTx(tx).Transfer(ctx, trade.TotalAmount, s.cfg.CustodyAccount, trade.Buyer); err != nil {
		return err
	}
	if err := trades.MarkRefunded(ctx, tradeID, models.TradeStatusCancelled); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "trade_cancelled",
		EntityType: "trade",
		EntityID:   entityID(tradeID),
		Meta:       map[string]any{"refund": trade.TotalAmount},
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishStatus(ctx, trade, models.TradeStatusCancelled)
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventTradeCancelled,
		Payload: map[string]any{
			"trade_id": tradeID,
			"buyer":    trade.Buyer.String(),
			"refund":   trade.TotalAmount,
		},
	})
	return nil
}

// ResolveDispute is the administrator's arbitration: pay the producer the
// after-fee amount, or refund the buyer in full. Either way the dispute ends
// in a terminal status and can never reopen.
func (s *TradeService) ResolveDispute(ctx context.Context, caller uuid.UUID, tradeID int64, releaseToProducer bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	platform, err := s.platformRepo.WithTx(tx).Get(ctx)
	if err != nil {
		return err
	}
	if caller != platform.Admin {
		return models.ErrNotAuthorized
	}

	trades := s.tradeRepo.WithTx(tx)
	trade, err := trades.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		return err
	}
	if err := trade.CanResolve(); err != nil {
		return err
	}

	var newStatus models.TradeStatus
	if releaseToProducer {
		newStatus = models.TradeStatusResolvedProducer
		if err := s.transition(trade.Status, newStatus); err != nil {
			return err
		}
		if err := s.settleToProducer(ctx, tx, trade); err != nil {
			return err
		}
		if err := trades.MarkReleased(ctx, tradeID, newStatus); err != nil {
			return err
		}
	} else {
		newStatus = models.TradeStatusResolvedBuyer
		if err := s.transition(trade.Status, newStatus); err != nil {
			return err
		}
		if err := s.funds.WithTx(tx).Transfer(ctx, trade.TotalAmount, s.cfg.CustodyAccount, trade.Buyer); err != nil {
			return err
		}
		if err := trades.MarkRefunded(ctx, tradeID, newStatus); err != nil {
			return err
		}
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "admin",
		Action:     "dispute_resolved",
		EntityType: "trade",
		EntityID:   entityID(tradeID),
		Meta:       map[string]any{"release_to_producer": releaseToProducer},
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publishStatus(ctx, trade, newStatus)
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventDisputeResolved,
		Payload: map[string]any{
			"trade_id":            tradeID,
			"release_to_producer": releaseToProducer,
		},
	})
	return nil
}

// settleToProducer drains a trade's custody on a producer-favoring outcome:
// the after-fee amount to the producer, the retained fee to the current fee
// recipient. Custody holds the full total until this point, so losing paths
// can always refund the buyer in full.
func (s *TradeService) settleToProducer(ctx context.Context, tx pgx.Tx, trade *models.Trade) error {
	funds := s.funds.WithTx(tx)
	if err := funds.Transfer(ctx, trade.AmountAfterFee, s.cfg.CustodyAccount, trade.Producer); err != nil {
		return err
	}
	platform, err := s.platformRepo.WithTx(tx).Get(ctx)
	if err != nil {
		return err
	}
	return funds.Transfer(ctx, trade.FeeAmount, s.cfg.CustodyAccount, platform.FeeRecipient)
}

func (s *TradeService) publishStatus(ctx context.Context, trade *models.Trade, newStatus models.TradeStatus) {
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventTradeStatusChanged,
		Payload: map[string]any{
			"trade_id":   trade.ID,
			"old_status": string(trade.Status),
			"new_status": string(newStatus),
		},
	})
}

func (s *TradeService) GetTrade(ctx context.Context, id int64) (*models.Trade, error) {
	return s.tradeRepo.GetByID(ctx, id)
}

func (s *TradeService) GetTradeByOffer(ctx context.Context, offerID int64) (*models.Trade, error) {
	return s.tradeRepo.GetByOfferID(ctx, offerID)
}

func (s *TradeService) NextTradeID(ctx context.Context) (int64, error) {
	return s.tradeRepo.NextID(ctx)
}

func (s *TradeService) GetTradeEvents(ctx context.Context, tradeID int64) ([]models.AuditLog, error) {
	return s.auditRepo.GetByEntity(ctx, "trade", strconv.FormatInt(tradeID, 10), 100, 0)
}
