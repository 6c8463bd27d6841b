package models

import "errors"

// Protocol errors. Every mutating operation fails with exactly one of these;
// the HTTP layer maps them to wire codes, nothing maps to a generic 500.
var (
	// Authorization family
	ErrNotAuthorized       = errors.New("caller is not authorized for this operation")
	ErrOracleNotConfigured = errors.New("no attestation authority is configured")

	// State family
	ErrNotFound               = errors.New("entity not found")
	ErrAlreadyCancelled       = errors.New("offer is no longer active")
	ErrTradeInProgress        = errors.New("offer has been accepted and has a trade in progress")
	ErrOfferCancelled         = errors.New("offer is cancelled or inactive")
	ErrOfferExpired           = errors.New("offer has expired")
	ErrAlreadyAccepted        = errors.New("offer has already been accepted")
	ErrInvalidState           = errors.New("trade is not in a state that permits this operation")
	ErrAlreadyReleased        = errors.New("funds have already been released")
	ErrDisputeActive          = errors.New("trade has an active dispute")
	ErrAlreadyRegistered      = errors.New("account is already registered")
	ErrRecipientNotRegistered = errors.New("recipient has no registered credit account")
	ErrAlreadyMinted          = errors.New("credits have already been minted for this trade")
	ErrTradeNotFound          = errors.New("no trade exists with this id")
	ErrTradeNotCompleted      = errors.New("trade has not reached the completed status")

	// Parameter family
	ErrInvalidParameters = errors.New("invalid offer parameters")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrDeadlinePassed    = errors.New("delivery deadline check failed")
	ErrAmountOverflow    = errors.New("amount arithmetic overflows")
)
