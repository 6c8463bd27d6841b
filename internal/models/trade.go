package models

import "github.com/google/uuid"

// Trade statuses
type TradeStatus string

const (
	TradeStatusEscrow           TradeStatus = "escrow"
	TradeStatusVerified         TradeStatus = "verified"
	TradeStatusDisputed         TradeStatus = "disputed"
	TradeStatusCompleted        TradeStatus = "completed"
	TradeStatusCancelled        TradeStatus = "cancelled"
	TradeStatusResolvedProducer TradeStatus = "resolved_producer"
	TradeStatusResolvedBuyer    TradeStatus = "resolved_buyer"
)

// BlocksPerHour converts a delivery window in hours into epochs, matching the
// settlement chain's ~5 minute cadence.
const BlocksPerHour = 12

// MaxDeliveryHours caps the buyer-chosen delivery window at 30 days.
const MaxDeliveryHours = 720

// ValidateDeliveryWindow bounds the delivery window before a deadline is ever
// computed. The cap keeps now + hours*BlocksPerHour far from the int64 bound.
func ValidateDeliveryWindow(hours int64) error {
	if hours <= 0 || hours > MaxDeliveryHours {
		return ErrInvalidParameters
	}
	return nil
}

// Valid state transitions: from -> []to. Terminal statuses map to an empty
// slice; anything absent from a status's slice is unreachable by any code path.
var ValidTradeTransitions = map[TradeStatus][]TradeStatus{
	TradeStatusEscrow:           {TradeStatusVerified, TradeStatusDisputed, TradeStatusCancelled},
	TradeStatusVerified:         {TradeStatusCompleted, TradeStatusDisputed},
	TradeStatusDisputed:         {TradeStatusResolvedProducer, TradeStatusResolvedBuyer},
	TradeStatusCompleted:        {},
	TradeStatusCancelled:        {},
	TradeStatusResolvedProducer: {},
	TradeStatusResolvedBuyer:    {},
}

func IsValidTradeTransition(from, to TradeStatus) bool {
	allowed, ok := ValidTradeTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalTradeStatus reports whether no further transition exists.
func IsTerminalTradeStatus(s TradeStatus) bool {
	allowed, ok := ValidTradeTransitions[s]
	return ok && len(allowed) == 0
}

// Trade is the escrow record spawned 1:1 from an accepted offer. It is never
// deleted; terminal records remain for audit.
type Trade struct {
	ID                 int64       `json:"id"`
	OfferID            int64       `json:"offer_id"`
	Buyer              uuid.UUID   `json:"buyer"`
	Producer           uuid.UUID   `json:"producer"`
	Quantity           int64       `json:"quantity"`
	UnitPrice          int64       `json:"unit_price"`
	TotalAmount        int64       `json:"total_amount"`
	FeeAmount          int64       `json:"fee_amount"`
	AmountAfterFee     int64       `json:"amount_after_fee"`
	CreatedAt          int64       `json:"created_at"`        // epoch
	DeliveryDeadline   int64       `json:"delivery_deadline"` // epoch
	Status             TradeStatus `json:"status"`
	DeliveryProof      []byte      `json:"delivery_proof,omitempty"`
	DisputeInitiated   bool        `json:"dispute_initiated"`
	ReleasedToProducer bool        `json:"released_to_producer"`
	RefundedToBuyer    bool        `json:"refunded_to_buyer"`
}

func (t *Trade) isParty(caller uuid.UUID) bool {
	return caller == t.Buyer || caller == t.Producer
}

// CanSubmitProof gates escrow -> verified.
func (t *Trade) CanSubmitProof(caller uuid.UUID, now int64) error {
	if !t.isParty(caller) {
		return ErrNotAuthorized
	}
	if t.Status != TradeStatusEscrow {
		return ErrInvalidState
	}
	if now > t.DeliveryDeadline {
		return ErrDeadlinePassed
	}
	return nil
}

// CanRelease gates verified -> completed. The released flag is checked ahead
// of the status so a double release reports ErrAlreadyReleased rather than
// the generic wrong-state error.
func (t *Trade) CanRelease(caller uuid.UUID) error {
	if caller != t.Buyer {
		return ErrNotAuthorized
	}
	if t.ReleasedToProducer {
		return ErrAlreadyReleased
	}
	if t.Status == TradeStatusDisputed {
		return ErrDisputeActive
	}
	if t.Status != TradeStatusVerified {
		return ErrInvalidState
	}
	return nil
}

// CanDispute gates escrow|verified -> disputed.
func (t *Trade) CanDispute(caller uuid.UUID, now int64) error {
	if !t.isParty(caller) {
		return ErrNotAuthorized
	}
	if t.Status == TradeStatusDisputed {
		return ErrDisputeActive
	}
	if t.Status != TradeStatusEscrow && t.Status != TradeStatusVerified {
		return ErrInvalidState
	}
	if now > t.DeliveryDeadline {
		return ErrDeadlinePassed
	}
	return nil
}

// CanCancel gates escrow -> cancelled. The deadline check is deliberately
// inverted relative to proof submission and disputes: cancellation is the
// buyer's recourse once the delivery window elapsed without verification,
// so it fails while now <= deadline.
func (t *Trade) CanCancel(caller uuid.UUID, now int64) error {
	if caller != t.Buyer {
		return ErrNotAuthorized
	}
	if t.Status != TradeStatusEscrow {
		return ErrInvalidState
	}
	if now <= t.DeliveryDeadline {
		return ErrDeadlinePassed
	}
	return nil
}

// CanResolve gates disputed -> resolved_producer|resolved_buyer. The caller
// check against the platform administrator happens in the service; the model
// only knows the dispute must still be active.
func (t *Trade) CanResolve() error {
	if t.Status != TradeStatusDisputed {
		return ErrInvalidState
	}
	return nil
}
