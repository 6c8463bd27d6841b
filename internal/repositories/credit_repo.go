package repositories

import (
	"context"
	"errors"

	"github.com/energy-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreditRepo owns the credit side of the system: registered accounts, the
// fungible balance ledger with its supply counter, and the mint record that
// enforces at-most-once issuance per trade.
type CreditRepo struct {
	db Querier
}

func NewCreditRepo(db Querier) *CreditRepo {
	return &CreditRepo{db: db}
}

func (r *CreditRepo) WithTx(tx pgx.Tx) *CreditRepo {
	return &CreditRepo{db: tx}
}

// --- Registered accounts ---

func (r *CreditRepo) Register(ctx context.Context, account uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO credit_accounts (account, registered, total_minted, last_mint_at)
		VALUES ($1, true, 0, 0)
		ON CONFLICT (account) DO NOTHING
	`, account)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAlreadyRegistered
	}
	return nil
}

func (r *CreditRepo) GetAccount(ctx context.Context, account uuid.UUID) (*models.AccountCredit, error) {
	var a models.AccountCredit
	err := r.db.QueryRow(ctx, `
		SELECT account, registered, total_minted, last_mint_at
		FROM credit_accounts WHERE account = $1
	`, account).Scan(&a.Account, &a.Registered, &a.TotalMinted, &a.LastMintAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Mint record ---

func (r *CreditRepo) IsMinted(ctx context.Context, tradeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM credit_mints WHERE trade_id = $1)
	`, tradeID).Scan(&exists)
	return exists, err
}

// RecordMint inserts the mint-record row. The primary key on trade_id is the
// hard guarantee behind mint-once; a duplicate insert surfaces as
// ErrAlreadyMinted even if two mints race past the precondition read.
func (r *CreditRepo) RecordMint(ctx context.Context, tradeID int64, recipient uuid.UUID, amount, mintedAt int64) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO credit_mints (trade_id, recipient, amount, minted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trade_id) DO NOTHING
	`, tradeID, recipient, amount, mintedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAlreadyMinted
	}
	return nil
}

func (r *CreditRepo) UpdateAccountMinted(ctx context.Context, account uuid.UUID, amount, mintedAt int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE credit_accounts SET total_minted = total_minted + $1, last_mint_at = $2
		WHERE account = $3
	`, amount, mintedAt, account)
	return err
}

// --- Balance ledger ---

func (r *CreditRepo) BalanceOf(ctx context.Context, account uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE((SELECT balance FROM credit_balances WHERE account = $1), 0)
	`, account).Scan(&balance)
	return balance, err
}

func (r *CreditRepo) TotalSupply(ctx context.Context) (int64, error) {
	var supply int64
	err := r.db.QueryRow(ctx, `SELECT total_supply FROM credit_supply`).Scan(&supply)
	return supply, err
}

// Credit adds to an account balance, creating the row when absent.
func (r *CreditRepo) Credit(ctx context.Context, account uuid.UUID, amount int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO credit_balances (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = credit_balances.balance + $2
	`, account, amount)
	return err
}

// Debit subtracts with a balance guard; ok=false means insufficient balance,
// which is a declared outcome, not an error.
func (r *CreditRepo) Debit(ctx context.Context, account uuid.UUID, amount int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE credit_balances SET balance = balance - $1
		WHERE account = $2 AND balance >= $1
	`, amount, account)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CreditRepo) AddSupply(ctx context.Context, delta int64) error {
	_, err := r.db.Exec(ctx, `UPDATE credit_supply SET total_supply = total_supply + $1`, delta)
	return err
}
