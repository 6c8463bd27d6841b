package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCanMint(t *testing.T) {
	authority := uuid.New()
	recipient := &AccountCredit{Account: uuid.New(), Registered: true}
	completed := TradeStatusCompleted
	escrow := TradeStatusEscrow

	tests := []struct {
		name          string
		authority     *uuid.UUID
		caller        uuid.UUID
		amount        int64
		recipient     *AccountCredit
		alreadyMinted bool
		tradeStatus   *TradeStatus
		wantErr       error
	}{
		{"valid mint", &authority, authority, 1000, recipient, false, &completed, nil},
		{"no authority configured", nil, authority, 1000, recipient, false, &completed, ErrOracleNotConfigured},
		{"caller is not authority", &authority, uuid.New(), 1000, recipient, false, &completed, ErrNotAuthorized},
		{"zero amount", &authority, authority, 0, recipient, false, &completed, ErrInvalidAmount},
		{"negative amount", &authority, authority, -5, recipient, false, &completed, ErrInvalidAmount},
		{"unknown recipient", &authority, authority, 1000, nil, false, &completed, ErrRecipientNotRegistered},
		{"unregistered recipient", &authority, authority, 1000, &AccountCredit{Account: uuid.New()}, false, &completed, ErrRecipientNotRegistered},
		{"already minted", &authority, authority, 1000, recipient, true, &completed, ErrAlreadyMinted},
		{"unknown trade", &authority, authority, 1000, recipient, false, nil, ErrTradeNotFound},
		{"trade still in escrow", &authority, authority, 1000, recipient, false, &escrow, ErrTradeNotCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMint(tt.authority, tt.caller, tt.amount, tt.recipient, tt.alreadyMinted, tt.tradeStatus)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanMint() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Precondition ordering: failures up the chain mask failures below them, so a
// misconfigured authority always wins and a double mint is reported even when
// the trade lookup would also fail.
func TestCanMintPrecedence(t *testing.T) {
	authority := uuid.New()
	escrow := TradeStatusEscrow

	if err := CanMint(nil, uuid.New(), -1, nil, true, nil); !errors.Is(err, ErrOracleNotConfigured) {
		t.Errorf("all-failures mint = %v, want ErrOracleNotConfigured", err)
	}
	if err := CanMint(&authority, authority, 1000, &AccountCredit{Registered: true}, true, &escrow); !errors.Is(err, ErrAlreadyMinted) {
		t.Errorf("minted+incomplete = %v, want ErrAlreadyMinted", err)
	}
}

func TestPlatformConfigSetters(t *testing.T) {
	admin := uuid.New()
	feeRecipient := uuid.New()
	p := &PlatformConfig{Admin: admin, FeeRecipient: feeRecipient, FeeRateBPS: 50}

	if err := p.CanSetFeeRate(feeRecipient, 100); err != nil {
		t.Errorf("fee recipient sets rate: %v", err)
	}
	if err := p.CanSetFeeRate(admin, 100); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("admin sets rate = %v, want ErrNotAuthorized", err)
	}
	if err := p.CanSetFeeRate(feeRecipient, MaxFeeRateBPS+1); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("rate above cap = %v, want ErrInvalidParameters", err)
	}
	if err := p.CanSetFeeRate(feeRecipient, -1); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("negative rate = %v, want ErrInvalidParameters", err)
	}
	if err := p.CanSetFeeRate(feeRecipient, 0); err != nil {
		t.Errorf("zero rate is allowed: %v", err)
	}

	if err := p.CanSetFeeRecipient(feeRecipient); err != nil {
		t.Errorf("fee recipient hands over: %v", err)
	}
	if err := p.CanSetFeeRecipient(admin); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("admin hands over recipient = %v, want ErrNotAuthorized", err)
	}

	if err := p.CanSetAttestationAuthority(admin); err != nil {
		t.Errorf("admin sets authority: %v", err)
	}
	if err := p.CanSetAttestationAuthority(feeRecipient); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("fee recipient sets authority = %v, want ErrNotAuthorized", err)
	}
}
