package models

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestValidateOfferParams(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int64
		unitPrice int64
		duration  int64
		wantErr   error
	}{
		{"valid", 1000, 150, 100, nil},
		{"min duration", 1, 1, MinOfferDuration, nil},
		{"zero quantity", 0, 150, 100, ErrInvalidParameters},
		{"negative quantity", -5, 150, 100, ErrInvalidParameters},
		{"zero price", 1000, 0, 100, ErrInvalidParameters},
		{"negative price", 1000, -1, 100, ErrInvalidParameters},
		{"duration below minimum", 1000, 150, MinOfferDuration - 1, ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOfferParams(tt.quantity, tt.unitPrice, tt.duration)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateOfferParams(%d, %d, %d) = %v, want %v",
					tt.quantity, tt.unitPrice, tt.duration, err, tt.wantErr)
			}
		})
	}
}

func testOffer() (*Offer, uuid.UUID) {
	producer := uuid.New()
	return &Offer{
		ID:        1,
		Producer:  producer,
		Quantity:  1000,
		UnitPrice: 150,
		Duration:  100,
		CreatedAt: 1000,
		ExpiresAt: 1100,
		Active:    true,
	}, producer
}

func TestOfferCanCancel(t *testing.T) {
	offer, producer := testOffer()

	if err := offer.CanCancel(producer); err != nil {
		t.Errorf("producer cancel on active offer: %v", err)
	}
	if err := offer.CanCancel(uuid.New()); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger cancel = %v, want ErrNotAuthorized", err)
	}

	cancelled, p := testOffer()
	cancelled.Active = false
	cancelled.Cancelled = true
	if err := cancelled.CanCancel(p); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("second cancel = %v, want ErrAlreadyCancelled", err)
	}

	// An accepted offer reports the trade, not a generic inactive error
	accepted, p2 := testOffer()
	buyer := uuid.New()
	tradeID := int64(7)
	accepted.Active = false
	accepted.AcceptedBy = &buyer
	accepted.TradeID = &tradeID
	if err := accepted.CanCancel(p2); !errors.Is(err, ErrTradeInProgress) {
		t.Errorf("cancel of accepted offer = %v, want ErrTradeInProgress", err)
	}
}

func TestOfferCanAccept(t *testing.T) {
	offer, _ := testOffer()

	if err := offer.CanAccept(1050); err != nil {
		t.Errorf("accept within window: %v", err)
	}
	// Expiry epoch itself is still acceptable
	if err := offer.CanAccept(1100); err != nil {
		t.Errorf("accept at expiry epoch: %v", err)
	}
	if err := offer.CanAccept(1101); !errors.Is(err, ErrOfferExpired) {
		t.Errorf("late accept = %v, want ErrOfferExpired", err)
	}

	cancelled, _ := testOffer()
	cancelled.Active = false
	cancelled.Cancelled = true
	if err := cancelled.CanAccept(1050); !errors.Is(err, ErrOfferCancelled) {
		t.Errorf("accept of cancelled offer = %v, want ErrOfferCancelled", err)
	}

	// A second accept reports the first, even though the offer is now inactive
	accepted, _ := testOffer()
	buyer := uuid.New()
	accepted.Active = false
	accepted.AcceptedBy = &buyer
	if err := accepted.CanAccept(1050); !errors.Is(err, ErrAlreadyAccepted) {
		t.Errorf("second accept = %v, want ErrAlreadyAccepted", err)
	}
}

func TestSafeMul(t *testing.T) {
	tests := []struct {
		name    string
		a, b    int64
		want    int64
		wantErr error
	}{
		{"simple", 1000, 150, 150000, nil},
		{"zero", 0, math.MaxInt64, 0, nil},
		{"max by one", math.MaxInt64, 1, math.MaxInt64, nil},
		{"overflow", math.MaxInt64, 2, 0, ErrAmountOverflow},
		{"overflow large pair", math.MaxInt64 / 2, 3, 0, ErrAmountOverflow},
		{"negative", -1, 10, 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeMul(tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SafeMul(%d, %d) error = %v, want %v", tt.a, tt.b, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("SafeMul(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{"standard half percent", 150000, 50, 750},
		{"truncates remainder", 199, 50, 0},
		{"just under one unit", 1999, 50, 9},
		{"zero rate", 150000, 0, 0},
		{"full cap", 150000, MaxFeeRateBPS, 15000},
		{"zero amount", 0, 50, 0},
		{"huge amount no overflow", math.MaxInt64, 50, (math.MaxInt64/10000)*50 + (math.MaxInt64%10000)*50/10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeFee(tt.amount, tt.bps); got != tt.want {
				t.Errorf("ComputeFee(%d, %d) = %d, want %d", tt.amount, tt.bps, got, tt.want)
			}
		})
	}
}

// The split form of ComputeFee must agree with the naive formula wherever the
// naive formula itself cannot overflow.
func TestComputeFeeMatchesNaive(t *testing.T) {
	amounts := []int64{1, 9999, 10000, 10001, 123456789, 1 << 40}
	rates := []int64{1, 25, 50, 100, 999, MaxFeeRateBPS}
	for _, amount := range amounts {
		for _, bps := range rates {
			want := amount * bps / 10000
			if got := ComputeFee(amount, bps); got != want {
				t.Errorf("ComputeFee(%d, %d) = %d, want %d", amount, bps, got, want)
			}
		}
	}
}

func TestTotalAmount(t *testing.T) {
	offer, _ := testOffer()
	total, err := offer.TotalAmount()
	if err != nil {
		t.Fatalf("TotalAmount: %v", err)
	}
	if total != 150000 {
		t.Errorf("TotalAmount = %d, want 150000", total)
	}

	offer.Quantity = math.MaxInt64
	offer.UnitPrice = 2
	if _, err := offer.TotalAmount(); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("overflowing TotalAmount = %v, want ErrAmountOverflow", err)
	}
}
