package services

import (
	"context"
	"errors"
	"time"

	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/events"
	"github.com/energy-marketplace/backend/internal/models"
	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TradeStatusReader is the only view of the escrow component the credit
// ledger ever sees: is there a trade with this id, and what status is it in.
type TradeStatusReader interface {
	StatusOf(ctx context.Context, tradeID int64) (models.TradeStatus, bool, error)
}

// CreditService is the fungible energy-credit ledger. Minting is gated on the
// corresponding trade having independently reached completed, and happens at
// most once per trade.
type CreditService struct {
	pool         *pgxpool.Pool
	creditRepo   *repositories.CreditRepo
	platformRepo *repositories.PlatformRepo
	auditRepo    *repositories.AuditRepo
	trades       TradeStatusReader
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
	now          func() int64
}

func NewCreditService(
	pool *pgxpool.Pool,
	creditRepo *repositories.CreditRepo,
	platformRepo *repositories.PlatformRepo,
	auditRepo *repositories.AuditRepo,
	trades TradeStatusReader,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *CreditService {
	return &CreditService{
		pool:         pool,
		creditRepo:   creditRepo,
		platformRepo: platformRepo,
		auditRepo:    auditRepo,
		trades:       trades,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
		now:          func() int64 { return cfg.Epoch(time.Now()) },
	}
}

// SetNowFunc overrides the epoch source. Test hook.
func (s *CreditService) SetNowFunc(now func() int64) {
	if now != nil {
		s.now = now
	}
}

// RegisterAccount creates the caller's credit account. Callers register only
// themselves; there is no registering on behalf of another account.
func (s *CreditService) RegisterAccount(ctx context.Context, caller uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.creditRepo.WithTx(tx).Register(ctx, caller); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "credit_account_registered",
		EntityType: "credit",
	})
	return tx.Commit(ctx)
}

// MintFromTrade issues credits for a completed trade. The mint-record insert
// inside the same transaction is what makes "at most once per trade" hold
// even under concurrent calls; the precondition read exists to report the
// right reason.
func (s *CreditService) MintFromTrade(ctx context.Context, caller uuid.UUID, tradeID int64, recipient uuid.UUID, amount int64) error {
	now := s.now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	platform, err := s.platformRepo.WithTx(tx).Get(ctx)
	if err != nil {
		return err
	}

	credits := s.creditRepo.WithTx(tx)
	account, err := credits.GetAccount(ctx, recipient)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	minted, err := credits.IsMinted(ctx, tradeID)
	if err != nil {
		return err
	}

	// Completed is terminal, so reading the status outside the trade row
	// lock is safe: once completed, always completed.
	var tradeStatus *models.TradeStatus
	status, found, err := s.trades.StatusOf(ctx, tradeID)
	if err != nil {
		return err
	}
	if found {
		tradeStatus = &status
	}

	if err := models.CanMint(platform.AttestationAuthority, caller, amount, account, minted, tradeStatus); err != nil {
		return err
	}

	if err := credits.RecordMint(ctx, tradeID, recipient, amount, now); err != nil {
		return err
	}
	if err := credits.Credit(ctx, recipient, amount); err != nil {
		return err
	}
	if err := credits.AddSupply(ctx, amount); err != nil {
		return err
	}
	if err := credits.UpdateAccountMinted(ctx, recipient, amount, now); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "oracle",
		Action:     "energy_minted",
		EntityType: "credit",
		EntityID:   entityID(tradeID),
		Meta:       map[string]any{"recipient": recipient.String(), "amount": amount},
	})
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventEnergyMinted,
		Payload: map[string]any{
			"trade_id":  tradeID,
			"recipient": recipient.String(),
			"amount":    amount,
		},
	})
	return nil
}

// Transfer moves credits between accounts. ok=false reports insufficient
// balance, which is a declared outcome rather than an error.
func (s *CreditService) Transfer(ctx context.Context, caller uuid.UUID, amount int64, sender, recipient uuid.UUID) (bool, error) {
	if caller != sender {
		return false, models.ErrNotAuthorized
	}
	if amount <= 0 {
		return false, models.ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	credits := s.creditRepo.WithTx(tx)
	ok, err := credits.Debit(ctx, sender, amount)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := credits.Credit(ctx, recipient, amount); err != nil {
		return false, err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "credits_transferred",
		EntityType: "credit",
		Meta:       map[string]any{"recipient": recipient.String(), "amount": amount},
	})
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventCreditsTransferred,
		Payload: map[string]any{
			"sender":    sender.String(),
			"recipient": recipient.String(),
			"amount":    amount,
		},
	})
	return true, nil
}

// Burn destroys credits from the caller's own balance, shrinking supply with
// the balance so conservation holds.
func (s *CreditService) Burn(ctx context.Context, caller uuid.UUID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, models.ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	credits := s.creditRepo.WithTx(tx)
	ok, err := credits.Debit(ctx, caller, amount)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := credits.AddSupply(ctx, -amount); err != nil {
		return false, err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "user",
		Action:     "credits_burned",
		EntityType: "credit",
		Meta:       map[string]any{"amount": amount},
	})
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	_ = s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type:    events.EventCreditsBurned,
		Payload: map[string]any{"account": caller.String(), "amount": amount},
	})
	return true, nil
}

// SetAttestationAuthority points minting authority at an external identity.
// Administrator only; replaceable.
func (s *CreditService) SetAttestationAuthority(ctx context.Context, caller, authority uuid.UUID) error {
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
	if err := p.CanSetAttestationAuthority(caller); err != nil {
		return err
	}
	if err := platform.SetAttestationAuthority(ctx, authority); err != nil {
		return err
	}
	_ = s.auditRepo.WithTx(tx).Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "admin",
		Action:     "attestation_authority_updated",
		EntityType: "platform",
		Meta:       map[string]any{"authority": authority.String()},
	})
	return tx.Commit(ctx)
}

func (s *CreditService) BalanceOf(ctx context.Context, account uuid.UUID) (int64, error) {
	return s.creditRepo.BalanceOf(ctx, account)
}

func (s *CreditService) TotalSupply(ctx context.Context) (int64, error) {
	return s.creditRepo.TotalSupply(ctx)
}

func (s *CreditService) GetAccount(ctx context.Context, account uuid.UUID) (*models.AccountCredit, error) {
	return s.creditRepo.GetAccount(ctx, account)
}

func (s *CreditService) IsTradeMinted(ctx context.Context, tradeID int64) (bool, error) {
	return s.creditRepo.IsMinted(ctx, tradeID)
}
