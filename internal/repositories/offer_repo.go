package repositories

import (
	"context"
	"errors"

	"github.com/energy-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OfferRepo struct {
	db Querier
}

func NewOfferRepo(db Querier) *OfferRepo {
	return &OfferRepo{db: db}
}

func (r *OfferRepo) WithTx(tx pgx.Tx) *OfferRepo {
	return &OfferRepo{db: tx}
}

const offerColumns = `id, producer, quantity, unit_price, duration, created_at, expires_at,
       active, cancelled, accepted_by, trade_id`

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(&o.ID, &o.Producer, &o.Quantity, &o.UnitPrice, &o.Duration,
		&o.CreatedAt, &o.ExpiresAt, &o.Active, &o.Cancelled, &o.AcceptedBy, &o.TradeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepo) Create(ctx context.Context, o *models.Offer) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO offers (producer, quantity, unit_price, duration, created_at, expires_at, active, cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, true, false)
		RETURNING id
	`, o.Producer, o.Quantity, o.UnitPrice, o.Duration, o.CreatedAt, o.ExpiresAt).Scan(&o.ID)
}

func (r *OfferRepo) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	return scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
}

// GetByIDForUpdate locks the offer row for the rest of the transaction.
func (r *OfferRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Offer, error) {
	return scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id))
}

func (r *OfferRepo) ListByProducer(ctx context.Context, producer uuid.UUID, limit, offset int) ([]models.Offer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE producer = $1
		ORDER BY id DESC LIMIT $2 OFFSET $3
	`, producer, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.Producer, &o.Quantity, &o.UnitPrice, &o.Duration,
			&o.CreatedAt, &o.ExpiresAt, &o.Active, &o.Cancelled, &o.AcceptedBy, &o.TradeID); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListExpiredActive returns active unaccepted offers whose window has lapsed.
// Used by the worker for notifications only; the offer record itself is not
// mutated by expiry.
func (r *OfferRepo) ListExpiredActive(ctx context.Context, now int64, limit int) ([]models.Offer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE active AND NOT cancelled AND accepted_by IS NULL AND expires_at < $1
		ORDER BY id LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.Producer, &o.Quantity, &o.UnitPrice, &o.Duration,
			&o.CreatedAt, &o.ExpiresAt, &o.Active, &o.Cancelled, &o.AcceptedBy, &o.TradeID); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OfferRepo) MarkCancelled(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE offers SET active = false, cancelled = true WHERE id = $1
	`, id)
	return err
}

// MarkAccepted flips the offer inactive and binds buyer and trade id in one
// statement; accepted_by and trade_id are always written together.
func (r *OfferRepo) MarkAccepted(ctx context.Context, id int64, buyer uuid.UUID, tradeID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE offers SET active = false, accepted_by = $1, trade_id = $2 WHERE id = $3
	`, buyer, tradeID, id)
	return err
}

// NextID reports the id the next created offer will receive.
func (r *OfferRepo) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM offers`).Scan(&next)
	return next, err
}
