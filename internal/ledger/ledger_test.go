package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fundTable is an in-memory stand-in for the fund_accounts table. It
// recognizes the three statements the ledger issues and applies them with
// the same guard semantics postgres would.
type fundTable struct {
	balances map[uuid.UUID]int64
}

func newFundTable() *fundTable {
	return &fundTable{balances: make(map[uuid.UUID]int64)}
}

func (f *fundTable) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "balance = balance - $1"):
		amount := args[0].(int64)
		from := args[1].(uuid.UUID)
		if f.balances[from] < amount {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		f.balances[from] -= amount
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(sql, "INSERT INTO fund_accounts"):
		account := args[0].(uuid.UUID)
		amount := args[1].(int64)
		f.balances[account] += amount
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
}

func (f *fundTable) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (f *fundTable) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "FROM fund_accounts") {
		return fakeRow{value: f.balances[args[0].(uuid.UUID)]}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
}

type fakeRow struct {
	value int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.value
	return nil
}

func (f *fundTable) total() int64 {
	var sum int64
	for _, b := range f.balances {
		sum += b
	}
	return sum
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	from, to := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		funded   int64
		amount   int64
		wantErr  error
		wantFrom int64
		wantTo   int64
	}{
		{"full balance", 100, 100, nil, 0, 100},
		{"partial", 100, 40, nil, 60, 40},
		{"zero is a no-op", 100, 0, nil, 100, 0},
		{"negative", 100, -1, ErrInsufficientFunds, 100, 0},
		{"insufficient", 100, 101, ErrInsufficientFunds, 100, 0},
		{"unfunded source", 0, 1, ErrInsufficientFunds, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newFundTable()
			l := New(table)
			if tt.funded > 0 {
				if err := l.Deposit(ctx, from, tt.funded); err != nil {
					t.Fatalf("Deposit: %v", err)
				}
			}
			if err := l.Transfer(ctx, tt.amount, from, to); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer = %v, want %v", err, tt.wantErr)
			}
			if got := table.balances[from]; got != tt.wantFrom {
				t.Errorf("from balance = %d, want %d", got, tt.wantFrom)
			}
			if got := table.balances[to]; got != tt.wantTo {
				t.Errorf("to balance = %d, want %d", got, tt.wantTo)
			}
		})
	}
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	table := newFundTable()
	l := New(table)
	account := uuid.New()

	if err := l.Deposit(ctx, account, 0); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("zero deposit = %v, want ErrInsufficientFunds", err)
	}
	if err := l.Deposit(ctx, account, -5); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("negative deposit = %v, want ErrInsufficientFunds", err)
	}
	if err := l.Deposit(ctx, account, 500); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if got, err := l.BalanceOf(ctx, account); err != nil || got != 500 {
		t.Errorf("BalanceOf = (%d, %v), want (500, nil)", got, err)
	}
}

// Custody holds a trade's full total until settlement, so every outcome is
// funded by that trade alone: a refund returns the whole total, a release
// splits it between producer and fee recipient, and either way custody
// drains to exactly zero with nothing created or destroyed.
func TestCustodyFundsEveryOutcome(t *testing.T) {
	ctx := context.Background()
	const (
		total    = 150000
		fee      = 750
		afterFee = total - fee
	)
	buyer, producer, custody, feeRecipient := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	escrow := func(t *testing.T, table *fundTable, l *Ledger) {
		t.Helper()
		if err := l.Deposit(ctx, buyer, total); err != nil {
			t.Fatalf("Deposit: %v", err)
		}
		if err := l.Transfer(ctx, total, buyer, custody); err != nil {
			t.Fatalf("escrow transfer: %v", err)
		}
		if got := table.balances[custody]; got != total {
			t.Fatalf("custody after escrow = %d, want %d", got, total)
		}
	}

	t.Run("refund", func(t *testing.T) {
		table := newFundTable()
		l := New(table)
		escrow(t, table, l)

		if err := l.Transfer(ctx, total, custody, buyer); err != nil {
			t.Fatalf("refund transfer: %v", err)
		}
		if got := table.balances[buyer]; got != total {
			t.Errorf("buyer after refund = %d, want %d", got, total)
		}
		if got := table.balances[custody]; got != 0 {
			t.Errorf("custody after refund = %d, want 0", got)
		}
		if got := table.total(); got != total {
			t.Errorf("sum of balances = %d, want %d", got, total)
		}
	})

	t.Run("release", func(t *testing.T) {
		table := newFundTable()
		l := New(table)
		escrow(t, table, l)

		if err := l.Transfer(ctx, afterFee, custody, producer); err != nil {
			t.Fatalf("producer transfer: %v", err)
		}
		if err := l.Transfer(ctx, fee, custody, feeRecipient); err != nil {
			t.Fatalf("fee transfer: %v", err)
		}
		if got := table.balances[producer]; got != afterFee {
			t.Errorf("producer = %d, want %d", got, afterFee)
		}
		if got := table.balances[feeRecipient]; got != fee {
			t.Errorf("fee recipient = %d, want %d", got, fee)
		}
		if got := table.balances[custody]; got != 0 {
			t.Errorf("custody after release = %d, want 0", got)
		}
		if got := table.total(); got != total {
			t.Errorf("sum of balances = %d, want %d", got, total)
		}
	})
}
