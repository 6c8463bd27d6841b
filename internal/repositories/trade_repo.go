package repositories

import (
	"context"
	"errors"

	"github.com/energy-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type TradeRepo struct {
	db Querier
}

func NewTradeRepo(db Querier) *TradeRepo {
	return &TradeRepo{db: db}
}

func (r *TradeRepo) WithTx(tx pgx.Tx) *TradeRepo {
	return &TradeRepo{db: tx}
}

const tradeColumns = `id, offer_id, buyer, producer, quantity, unit_price, total_amount,
       fee_amount, amount_after_fee, created_at, delivery_deadline, status,
       delivery_proof, dispute_initiated, released_to_producer, refunded_to_buyer`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.ID, &t.OfferID, &t.Buyer, &t.Producer, &t.Quantity, &t.UnitPrice,
		&t.TotalAmount, &t.FeeAmount, &t.AmountAfterFee, &t.CreatedAt, &t.DeliveryDeadline,
		&t.Status, &t.DeliveryProof, &t.DisputeInitiated, &t.ReleasedToProducer, &t.RefundedToBuyer)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TradeRepo) Create(ctx context.Context, t *models.Trade) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO trades (offer_id, buyer, producer, quantity, unit_price, total_amount,
		                    fee_amount, amount_after_fee, created_at, delivery_deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, t.OfferID, t.Buyer, t.Producer, t.Quantity, t.UnitPrice, t.TotalAmount,
		t.FeeAmount, t.AmountAfterFee, t.CreatedAt, t.DeliveryDeadline, t.Status).Scan(&t.ID)
}

func (r *TradeRepo) GetByID(ctx context.Context, id int64) (*models.Trade, error) {
	return scanTrade(r.db.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
}

// GetByIDForUpdate locks the trade row for the rest of the transaction.
func (r *TradeRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Trade, error) {
	return scanTrade(r.db.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1 FOR UPDATE`, id))
}

func (r *TradeRepo) GetByOfferID(ctx context.Context, offerID int64) (*models.Trade, error) {
	return scanTrade(r.db.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE offer_id = $1`, offerID))
}

// StatusOf is the narrow read the credit ledger depends on. The boolean is
// false when the trade id is unknown.
func (r *TradeRepo) StatusOf(ctx context.Context, id int64) (models.TradeStatus, bool, error) {
	var status models.TradeStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM trades WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (r *TradeRepo) UpdateStatus(ctx context.Context, id int64, status models.TradeStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE trades SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *TradeRepo) SetProof(ctx context.Context, id int64, proof []byte, status models.TradeStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trades SET delivery_proof = $1, status = $2 WHERE id = $3
	`, proof, status, id)
	return err
}

func (r *TradeRepo) MarkDisputed(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trades SET dispute_initiated = true, status = $1 WHERE id = $2
	`, models.TradeStatusDisputed, id)
	return err
}

// MarkReleased writes the terminal status and the single-assignment release
// flag together.
func (r *TradeRepo) MarkReleased(ctx context.Context, id int64, status models.TradeStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trades SET status = $1, released_to_producer = true
		WHERE id = $2 AND NOT released_to_producer AND NOT refunded_to_buyer
	`, status, id)
	return err
}

// MarkRefunded writes the terminal status and the single-assignment refund
// flag together.
func (r *TradeRepo) MarkRefunded(ctx context.Context, id int64, status models.TradeStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trades SET status = $1, refunded_to_buyer = true
		WHERE id = $2 AND NOT released_to_producer AND NOT refunded_to_buyer
	`, status, id)
	return err
}

// ListDeadlineElapsed returns escrow trades whose delivery window has passed.
// Worker notification read; never mutates.
func (r *TradeRepo) ListDeadlineElapsed(ctx context.Context, now int64, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE status = $1 AND delivery_deadline < $2
		ORDER BY id LIMIT $3
	`, models.TradeStatusEscrow, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.OfferID, &t.Buyer, &t.Producer, &t.Quantity, &t.UnitPrice,
			&t.TotalAmount, &t.FeeAmount, &t.AmountAfterFee, &t.CreatedAt, &t.DeliveryDeadline,
			&t.Status, &t.DeliveryProof, &t.DisputeInitiated, &t.ReleasedToProducer, &t.RefundedToBuyer); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// NextID reports the id the next created trade will receive.
func (r *TradeRepo) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM trades`).Scan(&next)
	return next, err
}
