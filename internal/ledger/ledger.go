// Package ledger is the client for the asset-transfer rail the marketplace
// settles on. The protocol treats it as an external service with atomic,
// immediately-final transfers; this implementation backs it with a postgres
// table so the whole marketplace runs on one database, but nothing outside
// this package assumes that.
package ledger

import (
	"context"
	"errors"

	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrInsufficientFunds is the only declared failure of a transfer; anything
// else is an infrastructure error.
var ErrInsufficientFunds = errors.New("insufficient funds")

type Ledger struct {
	db repositories.Querier
}

func New(db repositories.Querier) *Ledger {
	return &Ledger{db: db}
}

// WithTx binds the ledger to an open transaction so a fund movement commits
// or rolls back together with the protocol state written around it.
func (l *Ledger) WithTx(tx pgx.Tx) *Ledger {
	return &Ledger{db: tx}
}

// Transfer moves amount from one fund account to another. The debit carries
// a balance guard, so a transfer either fully applies or leaves both
// balances untouched. Zero-amount transfers are a no-op.
func (l *Ledger) Transfer(ctx context.Context, amount int64, from, to uuid.UUID) error {
	if amount == 0 {
		return nil
	}
	if amount < 0 {
		return ErrInsufficientFunds
	}

	tag, err := l.db.Exec(ctx, `
		UPDATE fund_accounts SET balance = balance - $1
		WHERE account = $2 AND balance >= $1
	`, amount, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO fund_accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = fund_accounts.balance + $2
	`, to, amount)
	return err
}

// Deposit provisions a fund balance from outside the marketplace. Stand-in
// for the settlement rail's inbound leg; gated to the administrator upstream.
func (l *Ledger) Deposit(ctx context.Context, account uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInsufficientFunds
	}
	_, err := l.db.Exec(ctx, `
		INSERT INTO fund_accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = fund_accounts.balance + $2
	`, account, amount)
	return err
}

func (l *Ledger) BalanceOf(ctx context.Context, account uuid.UUID) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `
		SELECT COALESCE((SELECT balance FROM fund_accounts WHERE account = $1), 0)
	`, account).Scan(&balance)
	return balance, err
}
