package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/events"
	"github.com/energy-marketplace/backend/internal/ledger"
	"github.com/energy-marketplace/backend/internal/models"
	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OfferService owns offer creation, cancellation, and acceptance, plus the
// fee configuration. Acceptance hands custody of the buyer's funds to the
// protocol and delegates trade creation to TradeService.
type OfferService struct {
	pool         *pgxpool.Pool
	offerRepo    *repositories.OfferRepo
	platformRepo *repositories.PlatformRepo
	auditRepo    *repositories.AuditRepo
	trades       *TradeService
	funds        *ledger.Ledger
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
	now          func() int64
}

func NewOfferService(
	pool *pgxpool.Pool,
	offerRepo *repositories.OfferRepo,
	platformRepo *repositories.PlatformRepo,
	auditRepo *repositories.AuditRepo,
	trades *TradeService,
	funds *ledger.Ledger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *OfferService {
	return &OfferService{
		pool:         pool,
		offerRepo:    offerRepo,
		platformRepo: platformRepo,
		auditRepo:    auditRepo,
		trades:       trades,
		funds:        funds,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
		now:          func() int64 { return cfg.Epoch(time.Now()) },
	}
}

// SetNowFunc overrides the epoch source. Test hook.
func (s *OfferService) SetNowFunc(now func() int64) {
	if now != nil {
		s.now = now
	}
}

func (s *OfferService) CreateOffer(ctx context.Context, producer uuid.UUID, quantity, unitPrice, duration int64) (*models.Offer, error) {
	if err := models.ValidateOfferParams(quantity, unitPrice, duration); err != nil {
		return nil, err
	}
	// Reject quantity*price pairs that cannot be settled before an id is
	// allocated.
	if _, err := models.SafeMul(quantity, unitPrice); err != nil {
		return nil, err
	}

	now := s.now()
	offer := &models.Offer{
		Producer:  producer,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Duration:  duration,
		CreatedAt: now,
		ExpiresAt: now + duration,
		Active:    true,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.offerRepo.WithTx(tx).Create(ctx, offer); err != nil {
		return nil, err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &producer,
		ActorType:  "user",
		Action:     "offer_created",
		EntityType: "offer",
		EntityID:   entityID(offer.ID),
		Meta:       map[string]any{"quantity": quantity, "unit_price": unitPrice, "expires_at": offer.ExpiresAt},
	})
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventOfferCreated,
		Payload: map[string]any{
			"offer_id": offer.ID,
			"producer": producer.String(),
			"quantity": quantity,
		},
	})
	return offer, nil
}

func (s *OfferService) CancelOffer(ctx context.Context, caller uuid.UUID, offerID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	offers := s.offerRepo.WithTx(tx)
	offer, err := offers.GetByIDForUpdate(ctx, offerID)
	if err != nil {
		return err
	}
	if err := offer.CanCancel(caller); err != nil {
		return err
	}
	if err := offers.MarkCancelled(ctx, offerID); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "offer_cancelled",
		EntityType: "offer",
		EntityID:   entityID(offerID),
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type:    events.EventOfferCancelled,
		Payload: map[string]any{"offer_id": offerID, "producer": offer.Producer.String()},
	})
	return nil
}

// AcceptResult reports what acceptance settled and which trade now holds
// custody.
type AcceptResult struct {
	TradeID        int64 `json:"trade_id"`
	TotalAmount    int64 `json:"total_amount"`
	FeeAmount      int64 `json:"fee_amount"`
	AmountAfterFee int64 `json:"amount_after_fee"`
}

// AcceptOffer performs the whole settlement handshake in one transaction:
// precondition checks on the locked offer row, buyer funds into custody,
// offer marked accepted, trade created. The fee is only carved out of
// custody when the trade settles in the producer's favor. Any failure rolls
// the entire step back.
func (s *OfferService) AcceptOffer(ctx context.Context, buyer uuid.UUID, offerID, deliveryHours int64) (*AcceptResult, error) {
	if err := models.ValidateDeliveryWindow(deliveryHours); err != nil {
		return nil, err
	}
	now := s.now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	offers := s.offerRepo.WithTx(tx)
	offer, err := offers.GetByIDForUpdate(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := offer.CanAccept(now); err != nil {
		return nil, err
	}

	platform, err := s.platformRepo.WithTx(tx).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load platform config: %w", err)
	}
	if platform.AttestationAuthority == nil {
		return nil, models.ErrOracleNotConfigured
	}

	total, err := offer.TotalAmount()
	if err != nil {
		return nil, err
	}
	fee := models.ComputeFee(total, platform.FeeRateBPS)
	afterFee := total - fee

	// The fee stays in custody until terminal settlement. Paying the
	// recipient here would leave custody short of the full refund a later
	// cancel or buyer-side resolution owes.
	if err := s.funds.WithTx(tx).Transfer(ctx, total, buyer, s.cfg.CustodyAccount); err != nil {
		return nil, err
	}

	trade := &models.Trade{
		OfferID:          offerID,
		Buyer:            buyer,
		Producer:         offer.Producer,
		Quantity:         offer.Quantity,
		UnitPrice:        offer.UnitPrice,
		TotalAmount:      total,
		FeeAmount:        fee,
		AmountAfterFee:   afterFee,
		CreatedAt:        now,
		DeliveryDeadline: now + deliveryHours*models.BlocksPerHour,
		Status:           models.TradeStatusEscrow,
	}
	if err := s.trades.CreateTrade(ctx, tx, trade); err != nil {
		return nil, err
	}

	if err := offers.MarkAccepted(ctx, offerID, buyer, trade.ID); err != nil {
		return nil, err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &buyer,
		ActorType:  "user",
		Action:     "offer_accepted",
		EntityType: "offer",
		EntityID:   entityID(offerID),
		Meta:       map[string]any{"trade_id": trade.ID, "total": total, "fee": fee},
	})
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventOfferAccepted,
		Payload: map[string]any{
			"offer_id": offerID,
			"buyer":    buyer.String(),
			"producer": offer.Producer.String(),
			"trade_id": trade.ID,
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventTradeCreated,
		Payload: map[string]any{
			"trade_id": trade.ID,
			"offer_id": offerID,
			"total":    total,
			"deadline": trade.DeliveryDeadline,
		},
	})

	return &AcceptResult{
		TradeID:        trade.ID,
		TotalAmount:    total,
		FeeAmount:      fee,
		AmountAfterFee: afterFee,
	}, nil
}

// SetFeeRate updates the platform fee; only the current fee recipient may
// call it.
func (s *OfferService) SetFeeRate(ctx context.Context, caller uuid.UUID, bps int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	platform := s.platformRepo.WithTx(tx)
	p, err := platform.GetForUpdate(ctx)
	if err != nil {
		return err
	}
	if err := p.CanSetFeeRate(caller, bps); err != nil {
		return err
	}
	if err := platform.SetFeeRate(ctx, bps); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "fee_rate_updated",
		EntityType: "platform",
		Meta:       map[string]any{"fee_rate_bps": bps},
	})
	return tx.Commit(ctx)
}

// SetFeeRecipient hands the fee stream (and fee-rate control) to another
// account.
func (s *OfferService) SetFeeRecipient(ctx context.Context, caller, account uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	platform := s.platformRepo.WithTx(tx)
	p, err := platform.GetForUpdate(ctx)
	if err != nil {
		return err
	}
	if err := p.CanSetFeeRecipient(caller); err != nil {
		return err
	}
	if err := platform.SetFeeRecipient(ctx, account); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "fee_recipient_updated",
		EntityType: "platform",
		Meta:       map[string]any{"fee_recipient": account.String()},
	})
	return tx.Commit(ctx)
}

func (s *OfferService) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	return s.offerRepo.GetByID(ctx, id)
}

func (s *OfferService) ListByProducer(ctx context.Context, producer uuid.UUID, limit, offset int) ([]models.Offer, error) {
	return s.offerRepo.ListByProducer(ctx, producer, limit, offset)
}

func (s *OfferService) NextOfferID(ctx context.Context) (int64, error) {
	return s.offerRepo.NextID(ctx)
}

// PreviewFee is the pure fee computation at the current rate.
func (s *OfferService) PreviewFee(ctx context.Context, amount int64) (int64, error) {
	p, err := s.platformRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	return models.ComputeFee(amount, p.FeeRateBPS), nil
}

func (s *OfferService) GetPlatform(ctx context.Context) (*models.PlatformConfig, error) {
	return s.platformRepo.Get(ctx)
}

func (s *OfferService) GetOfferEvents(ctx context.Context, offerID int64) ([]models.AuditLog, error) {
	return s.auditRepo.GetByEntity(ctx, "offer", strconv.FormatInt(offerID, 10), 100, 0)
}

func entityID(id int64) *string {
	s := strconv.FormatInt(id, 10)
	return &s
}
