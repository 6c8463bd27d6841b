package models

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestIsValidTradeTransition(t *testing.T) {
	tests := []struct {
		from     TradeStatus
		to       TradeStatus
		expected bool
	}{
		// Happy path
		{TradeStatusEscrow, TradeStatusVerified, true},
		{TradeStatusVerified, TradeStatusCompleted, true},

		// Dispute paths
		{TradeStatusEscrow, TradeStatusDisputed, true},
		{TradeStatusVerified, TradeStatusDisputed, true},
		{TradeStatusDisputed, TradeStatusResolvedProducer, true},
		{TradeStatusDisputed, TradeStatusResolvedBuyer, true},

		// Buyer recourse
		{TradeStatusEscrow, TradeStatusCancelled, true},

		// Invalid transitions
		{TradeStatusEscrow, TradeStatusCompleted, false},
		{TradeStatusVerified, TradeStatusCancelled, false},
		{TradeStatusVerified, TradeStatusEscrow, false},
		{TradeStatusDisputed, TradeStatusCompleted, false},
		{TradeStatusDisputed, TradeStatusCancelled, false},
		{TradeStatusCompleted, TradeStatusEscrow, false},
		{TradeStatusCompleted, TradeStatusDisputed, false},
		{TradeStatusCancelled, TradeStatusEscrow, false},
		{TradeStatusResolvedProducer, TradeStatusCompleted, false},
		{TradeStatusResolvedBuyer, TradeStatusCancelled, false},
		{"nonexistent", TradeStatusVerified, false},
		{TradeStatusEscrow, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			result := IsValidTradeTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTradeTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllTradeStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []TradeStatus{
		TradeStatusEscrow, TradeStatusVerified, TradeStatusDisputed,
		TradeStatusCompleted, TradeStatusCancelled,
		TradeStatusResolvedProducer, TradeStatusResolvedBuyer,
	}

	for _, status := range allStatuses {
		if _, ok := ValidTradeTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidTradeTransitions map", status)
		}
	}
}

func TestTerminalTradeStatuses(t *testing.T) {
	terminal := []TradeStatus{
		TradeStatusCompleted, TradeStatusCancelled,
		TradeStatusResolvedProducer, TradeStatusResolvedBuyer,
	}
	for _, status := range terminal {
		if !IsTerminalTradeStatus(status) {
			t.Errorf("status %q should be terminal", status)
		}
		if transitions := ValidTradeTransitions[status]; len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
	for _, status := range []TradeStatus{TradeStatusEscrow, TradeStatusVerified, TradeStatusDisputed} {
		if IsTerminalTradeStatus(status) {
			t.Errorf("status %q should not be terminal", status)
		}
	}
}

func testTrade(status TradeStatus) (*Trade, uuid.UUID, uuid.UUID) {
	buyer := uuid.New()
	producer := uuid.New()
	return &Trade{
		ID:               1,
		OfferID:          1,
		Buyer:            buyer,
		Producer:         producer,
		Quantity:         1000,
		UnitPrice:        150,
		TotalAmount:      150000,
		FeeAmount:        750,
		AmountAfterFee:   149250,
		CreatedAt:        1000,
		DeliveryDeadline: 1012,
		Status:           status,
	}, buyer, producer
}

func TestCanSubmitProof(t *testing.T) {
	trade, buyer, producer := testTrade(TradeStatusEscrow)

	if err := trade.CanSubmitProof(producer, 1005); err != nil {
		t.Errorf("producer proof within window: %v", err)
	}
	if err := trade.CanSubmitProof(buyer, 1005); err != nil {
		t.Errorf("buyer may submit proof too: %v", err)
	}
	if err := trade.CanSubmitProof(uuid.New(), 1005); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger proof = %v, want ErrNotAuthorized", err)
	}
	// Deadline epoch itself is still inside the window
	if err := trade.CanSubmitProof(producer, 1012); err != nil {
		t.Errorf("proof at deadline epoch: %v", err)
	}
	if err := trade.CanSubmitProof(producer, 1013); !errors.Is(err, ErrDeadlinePassed) {
		t.Errorf("late proof = %v, want ErrDeadlinePassed", err)
	}

	verified, _, prod := testTrade(TradeStatusVerified)
	if err := verified.CanSubmitProof(prod, 1005); !errors.Is(err, ErrInvalidState) {
		t.Errorf("proof on verified trade = %v, want ErrInvalidState", err)
	}
}

func TestCanRelease(t *testing.T) {
	trade, buyer, producer := testTrade(TradeStatusVerified)

	if err := trade.CanRelease(buyer); err != nil {
		t.Errorf("buyer release on verified: %v", err)
	}
	if err := trade.CanRelease(producer); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("producer release = %v, want ErrNotAuthorized", err)
	}

	escrow, b, _ := testTrade(TradeStatusEscrow)
	if err := escrow.CanRelease(b); !errors.Is(err, ErrInvalidState) {
		t.Errorf("release on escrow = %v, want ErrInvalidState", err)
	}

	disputed, b2, _ := testTrade(TradeStatusDisputed)
	if err := disputed.CanRelease(b2); !errors.Is(err, ErrDisputeActive) {
		t.Errorf("release on disputed = %v, want ErrDisputeActive", err)
	}

	// Double release reports the released flag, not the completed status
	done, b3, _ := testTrade(TradeStatusCompleted)
	done.ReleasedToProducer = true
	if err := done.CanRelease(b3); !errors.Is(err, ErrAlreadyReleased) {
		t.Errorf("second release = %v, want ErrAlreadyReleased", err)
	}
}

func TestCanDispute(t *testing.T) {
	for _, status := range []TradeStatus{TradeStatusEscrow, TradeStatusVerified} {
		trade, buyer, producer := testTrade(status)
		if err := trade.CanDispute(buyer, 1005); err != nil {
			t.Errorf("buyer dispute on %s: %v", status, err)
		}
		if err := trade.CanDispute(producer, 1005); err != nil {
			t.Errorf("producer dispute on %s: %v", status, err)
		}
	}

	trade, buyer, _ := testTrade(TradeStatusEscrow)
	if err := trade.CanDispute(uuid.New(), 1005); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger dispute = %v, want ErrNotAuthorized", err)
	}
	if err := trade.CanDispute(buyer, 1013); !errors.Is(err, ErrDeadlinePassed) {
		t.Errorf("late dispute = %v, want ErrDeadlinePassed", err)
	}

	disputed, b, _ := testTrade(TradeStatusDisputed)
	if err := disputed.CanDispute(b, 1005); !errors.Is(err, ErrDisputeActive) {
		t.Errorf("second dispute = %v, want ErrDisputeActive", err)
	}

	done, b2, _ := testTrade(TradeStatusCompleted)
	if err := done.CanDispute(b2, 1005); !errors.Is(err, ErrInvalidState) {
		t.Errorf("dispute on completed = %v, want ErrInvalidState", err)
	}
}

func TestCanCancel(t *testing.T) {
	trade, buyer, producer := testTrade(TradeStatusEscrow)

	// Cancellation opens only after the delivery window lapses
	if err := trade.CanCancel(buyer, 1005); !errors.Is(err, ErrDeadlinePassed) {
		t.Errorf("early cancel = %v, want ErrDeadlinePassed", err)
	}
	if err := trade.CanCancel(buyer, 1012); !errors.Is(err, ErrDeadlinePassed) {
		t.Errorf("cancel at deadline epoch = %v, want ErrDeadlinePassed", err)
	}
	if err := trade.CanCancel(buyer, 1013); err != nil {
		t.Errorf("cancel past deadline: %v", err)
	}
	if err := trade.CanCancel(producer, 1013); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("producer cancel = %v, want ErrNotAuthorized", err)
	}

	verified, b, _ := testTrade(TradeStatusVerified)
	if err := verified.CanCancel(b, 1013); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancel on verified = %v, want ErrInvalidState", err)
	}
}

func TestCanResolve(t *testing.T) {
	disputed, _, _ := testTrade(TradeStatusDisputed)
	if err := disputed.CanResolve(); err != nil {
		t.Errorf("resolve on disputed: %v", err)
	}

	for _, status := range []TradeStatus{
		TradeStatusEscrow, TradeStatusVerified, TradeStatusCompleted,
		TradeStatusResolvedProducer, TradeStatusResolvedBuyer,
	} {
		trade, _, _ := testTrade(status)
		if err := trade.CanResolve(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("resolve on %s = %v, want ErrInvalidState", status, err)
		}
	}
}

func TestValidateDeliveryWindow(t *testing.T) {
	tests := []struct {
		name    string
		hours   int64
		wantErr error
	}{
		{"one hour", 1, nil},
		{"one day", 24, nil},
		{"max window", MaxDeliveryHours, nil},
		{"zero", 0, ErrInvalidParameters},
		{"negative", -1, ErrInvalidParameters},
		{"above cap", MaxDeliveryHours + 1, ErrInvalidParameters},
		// hours*BlocksPerHour would wrap and place the deadline in the past,
		// locking out proof while opening cancel at the creation instant
		{"overflowing", math.MaxInt64/BlocksPerHour + 1, ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateDeliveryWindow(tt.hours); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDeliveryWindow(%d) = %v, want %v", tt.hours, err, tt.wantErr)
			}
		})
	}

	// Any accepted window yields a usable deadline: proof is possible and
	// premature cancel is not, at the creation instant.
	trade, buyer, producer := testTrade(TradeStatusEscrow)
	trade.DeliveryDeadline = trade.CreatedAt + MaxDeliveryHours*BlocksPerHour
	if err := trade.CanSubmitProof(producer, trade.CreatedAt); err != nil {
		t.Errorf("proof at creation with max window: %v", err)
	}
	if err := trade.CanCancel(buyer, trade.CreatedAt); !errors.Is(err, ErrDeadlinePassed) {
		t.Errorf("cancel at creation with max window = %v, want ErrDeadlinePassed", err)
	}
}

// A trade resolved for the buyer stays resolved: no release can follow.
func TestResolvedBuyerBlocksRelease(t *testing.T) {
	trade, buyer, _ := testTrade(TradeStatusResolvedBuyer)
	trade.RefundedToBuyer = true
	if err := trade.CanRelease(buyer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("release after buyer resolution = %v, want ErrInvalidState", err)
	}
}
