package models

import "github.com/google/uuid"

// AccountCredit tracks a registered credit recipient. Rows are created at
// registration and mutated only by successful mints.
type AccountCredit struct {
	Account     uuid.UUID `json:"account"`
	Registered  bool      `json:"registered"`
	TotalMinted int64     `json:"total_minted"`
	LastMintAt  int64     `json:"last_mint_at"` // epoch, 0 if never minted
}

// CreditBalance is one row of the fungible credit ledger.
type CreditBalance struct {
	Account uuid.UUID `json:"account"`
	Balance int64     `json:"balance"`
}

// CanMint checks every mint precondition in order. tradeStatus is nil when
// the escrow component has no record of the trade id. The ledger never asks
// why a trade completed, only that it did.
func CanMint(authority *uuid.UUID, caller uuid.UUID, amount int64, recipient *AccountCredit, alreadyMinted bool, tradeStatus *TradeStatus) error {
	if authority == nil {
		return ErrOracleNotConfigured
	}
	if caller != *authority {
		return ErrNotAuthorized
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if recipient == nil || !recipient.Registered {
		return ErrRecipientNotRegistered
	}
	if alreadyMinted {
		return ErrAlreadyMinted
	}
	if tradeStatus == nil {
		return ErrTradeNotFound
	}
	if *tradeStatus != TradeStatusCompleted {
		return ErrTradeNotCompleted
	}
	return nil
}
