package repositories

import (
	"context"
	"errors"

	"github.com/energy-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlatformRepo reads and writes the single platform_config row.
type PlatformRepo struct {
	db Querier
}

func NewPlatformRepo(db Querier) *PlatformRepo {
	return &PlatformRepo{db: db}
}

func (r *PlatformRepo) WithTx(tx pgx.Tx) *PlatformRepo {
	return &PlatformRepo{db: tx}
}

// Seed writes the bootstrap configuration if no row exists yet. Later starts
// leave the stored row untouched.
func (r *PlatformRepo) Seed(ctx context.Context, admin, feeRecipient uuid.UUID, feeRateBPS int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO platform_config (id, admin, fee_recipient, fee_rate_bps)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, admin, feeRecipient, feeRateBPS)
	return err
}

func (r *PlatformRepo) Get(ctx context.Context) (*models.PlatformConfig, error) {
	var p models.PlatformConfig
	err := r.db.QueryRow(ctx, `
		SELECT admin, fee_recipient, fee_rate_bps, attestation_authority
		FROM platform_config WHERE id = 1
	`).Scan(&p.Admin, &p.FeeRecipient, &p.FeeRateBPS, &p.AttestationAuthority)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetForUpdate locks the config row so setter checks and writes are atomic.
func (r *PlatformRepo) GetForUpdate(ctx context.Context) (*models.PlatformConfig, error) {
	var p models.PlatformConfig
	err := r.db.QueryRow(ctx, `
		SELECT admin, fee_recipient, fee_rate_bps, attestation_authority
		FROM platform_config WHERE id = 1 FOR UPDATE
	`).Scan(&p.Admin, &p.FeeRecipient, &p.FeeRateBPS, &p.AttestationAuthority)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlatformRepo) SetFeeRate(ctx context.Context, bps int64) error {
	_, err := r.db.Exec(ctx, `UPDATE platform_config SET fee_rate_bps = $1 WHERE id = 1`, bps)
	return err
}

func (r *PlatformRepo) SetFeeRecipient(ctx context.Context, account uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE platform_config SET fee_recipient = $1 WHERE id = 1`, account)
	return err
}

func (r *PlatformRepo) SetAttestationAuthority(ctx context.Context, account uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE platform_config SET attestation_authority = $1 WHERE id = 1`, account)
	return err
}
