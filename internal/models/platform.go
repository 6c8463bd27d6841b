package models

import "github.com/google/uuid"

// PlatformConfig is the single row of marketplace-wide configuration.
// It is mutated only through the dedicated setter operations, each gated by
// an authorization check against the current value — never through ambient
// globals.
type PlatformConfig struct {
	Admin                uuid.UUID  `json:"admin"`
	FeeRecipient         uuid.UUID  `json:"fee_recipient"`
	FeeRateBPS           int64      `json:"fee_rate_bps"`
	AttestationAuthority *uuid.UUID `json:"attestation_authority,omitempty"`
}

// CanSetFeeRate gates fee-rate and fee-recipient updates.
func (p *PlatformConfig) CanSetFeeRate(caller uuid.UUID, bps int64) error {
	if caller != p.FeeRecipient {
		return ErrNotAuthorized
	}
	if bps < 0 || bps > MaxFeeRateBPS {
		return ErrInvalidParameters
	}
	return nil
}

// CanSetFeeRecipient gates handover of the fee recipient identity.
func (p *PlatformConfig) CanSetFeeRecipient(caller uuid.UUID) error {
	if caller != p.FeeRecipient {
		return ErrNotAuthorized
	}
	return nil
}

// CanSetAttestationAuthority gates the mint-authority pointer.
func (p *PlatformConfig) CanSetAttestationAuthority(caller uuid.UUID) error {
	if caller != p.Admin {
		return ErrNotAuthorized
	}
	return nil
}
