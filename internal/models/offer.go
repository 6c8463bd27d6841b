package models

import (
	"math"

	"github.com/google/uuid"
)

// MinOfferDuration is the smallest accepted offer validity window, in epochs.
const MinOfferDuration = 10

// MaxFeeRateBPS caps the platform fee at 10%.
const MaxFeeRateBPS = 1000

// Offer is a producer's standing proposal to sell energy. Offers own no funds;
// custody begins only when an offer is accepted and a trade is created.
type Offer struct {
	ID         int64      `json:"id"`
	Producer   uuid.UUID  `json:"producer"`
	Quantity   int64      `json:"quantity"`   // energy units
	UnitPrice  int64      `json:"unit_price"` // smallest currency denomination per unit
	Duration   int64      `json:"duration"`   // epochs
	CreatedAt  int64      `json:"created_at"` // epoch
	ExpiresAt  int64      `json:"expires_at"` // epoch
	Active     bool       `json:"active"`
	Cancelled  bool       `json:"cancelled"`
	AcceptedBy *uuid.UUID `json:"accepted_by,omitempty"`
	TradeID    *int64     `json:"trade_id,omitempty"`
}

// ValidateOfferParams rejects offers before an id is ever allocated.
func ValidateOfferParams(quantity, unitPrice, duration int64) error {
	if quantity <= 0 || unitPrice <= 0 || duration < MinOfferDuration {
		return ErrInvalidParameters
	}
	return nil
}

// CanCancel checks the producer-cancel preconditions. An accepted offer
// reports ErrTradeInProgress even though acceptance also cleared the active
// flag; cancellation is only ever possible while the offer is unaccepted.
func (o *Offer) CanCancel(caller uuid.UUID) error {
	if caller != o.Producer {
		return ErrNotAuthorized
	}
	if o.AcceptedBy != nil {
		return ErrTradeInProgress
	}
	if !o.Active || o.Cancelled {
		return ErrAlreadyCancelled
	}
	return nil
}

// CanAccept checks the buyer-accept preconditions. The accepted-by check runs
// first so a second accept on the same offer reports ErrAlreadyAccepted
// rather than the generic inactive error.
func (o *Offer) CanAccept(now int64) error {
	if o.AcceptedBy != nil {
		return ErrAlreadyAccepted
	}
	if o.Cancelled || !o.Active {
		return ErrOfferCancelled
	}
	if now > o.ExpiresAt {
		return ErrOfferExpired
	}
	return nil
}

// TotalAmount computes quantity*unitPrice with an overflow guard. Amounts are
// kept within int64; realistic quantities and prices never approach the bound,
// but a hostile pair must fail rather than wrap.
func (o *Offer) TotalAmount() (int64, error) {
	return SafeMul(o.Quantity, o.UnitPrice)
}

// SafeMul multiplies two non-negative int64 values, failing on overflow.
func SafeMul(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt64/b {
		return 0, ErrAmountOverflow
	}
	return a * b, nil
}

// ComputeFee truncates toward zero, matching integer division on-chain.
// Split into quotient and remainder parts so amount*bps cannot overflow.
func ComputeFee(amount, feeRateBPS int64) int64 {
	if amount <= 0 || feeRateBPS <= 0 {
		return 0
	}
	return (amount/10000)*feeRateBPS + (amount%10000)*feeRateBPS/10000
}
