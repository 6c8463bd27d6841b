package handlers

import (
	"errors"

	"github.com/energy-marketplace/backend/internal/http/dto"
	"github.com/energy-marketplace/backend/internal/ledger"
	"github.com/energy-marketplace/backend/internal/middleware"
	"github.com/energy-marketplace/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// wireError pairs the enumerated reason code with its HTTP status. Statuses
// follow the error families: authorization 403, missing entities 404, wrong
// lifecycle stage 409, bad parameters 400.
type wireError struct {
	status int
	code   string
}

var wireErrors = []struct {
	err  error
	wire wireError
}{
	{models.ErrNotAuthorized, wireError{fiber.StatusForbidden, "not_authorized"}},
	{models.ErrOracleNotConfigured, wireError{fiber.StatusConflict, "oracle_not_configured"}},
	{models.ErrNotFound, wireError{fiber.StatusNotFound, "not_found"}},
	{models.ErrTradeNotFound, wireError{fiber.StatusNotFound, "trade_not_found"}},
	{models.ErrAlreadyCancelled, wireError{fiber.StatusConflict, "already_cancelled"}},
	{models.ErrTradeInProgress, wireError{fiber.StatusConflict, "trade_in_progress"}},
	{models.ErrOfferCancelled, wireError{fiber.StatusConflict, "offer_cancelled"}},
	{models.ErrOfferExpired, wireError{fiber.StatusConflict, "offer_expired"}},
	{models.ErrAlreadyAccepted, wireError{fiber.StatusConflict, "already_accepted"}},
	{models.ErrInvalidState, wireError{fiber.StatusConflict, "invalid_state"}},
	{models.ErrAlreadyReleased, wireError{fiber.StatusConflict, "already_released"}},
	{models.ErrDisputeActive, wireError{fiber.StatusConflict, "dispute_active"}},
	{models.ErrAlreadyRegistered, wireError{fiber.StatusConflict, "already_registered"}},
	{models.ErrRecipientNotRegistered, wireError{fiber.StatusConflict, "recipient_not_registered"}},
	{models.ErrAlreadyMinted, wireError{fiber.StatusConflict, "already_minted"}},
	{models.ErrTradeNotCompleted, wireError{fiber.StatusConflict, "trade_not_completed"}},
	{models.ErrInvalidParameters, wireError{fiber.StatusBadRequest, "invalid_parameters"}},
	{models.ErrInvalidAmount, wireError{fiber.StatusBadRequest, "invalid_amount"}},
	{models.ErrDeadlinePassed, wireError{fiber.StatusBadRequest, "deadline_passed"}},
	{models.ErrAmountOverflow, wireError{fiber.StatusBadRequest, "amount_overflow"}},
	{ledger.ErrInsufficientFunds, wireError{fiber.StatusBadRequest, "insufficient_funds"}},
}

// respondError translates a service failure into the wire shape. Unmapped
// errors are infrastructure faults and surface as 500 without leaking detail.
func respondError(c *fiber.Ctx, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	for _, m := range wireErrors {
		if errors.Is(err, m.err) {
			return c.Status(m.wire.status).JSON(dto.ErrorResponse{
				Error:     m.err.Error(),
				Code:      m.wire.code,
				RequestID: reqID,
			})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error:     "internal error",
		RequestID: reqID,
	})
}
