package handlers

import (
	"github.com/energy-marketplace/backend/internal/http/dto"
	"github.com/energy-marketplace/backend/internal/ledger"
	"github.com/energy-marketplace/backend/internal/middleware"
	"github.com/energy-marketplace/backend/internal/models"
	"github.com/energy-marketplace/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FundsHandler exposes the settlement rail's balances plus an inbound
// deposit leg. Deposits are administrator-gated: in production they would
// arrive from the external rail, not through this API.
type FundsHandler struct {
	funds        *ledger.Ledger
	platformRepo *repositories.PlatformRepo
	log          *zap.Logger
}

func NewFundsHandler(funds *ledger.Ledger, platformRepo *repositories.PlatformRepo, log *zap.Logger) *FundsHandler {
	return &FundsHandler{funds: funds, platformRepo: platformRepo, log: log}
}

func (h *FundsHandler) BalanceOf(c *fiber.Ctx) error {
	account, err := parseAccount(c, "account")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account"})
	}

	balance, err := h.funds.BalanceOf(c.Context(), account)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{
		Account: account.String(),
		Balance: balance,
	}})
}

func (h *FundsHandler) Deposit(c *fiber.Ctx) error {
	var req dto.DepositFundsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	account, err := uuid.Parse(req.Account)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account"})
	}

	platform, err := h.platformRepo.Get(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if middleware.GetAccountID(c) != platform.Admin {
		return respondError(c, models.ErrNotAuthorized)
	}

	if err := h.funds.Deposit(c.Context(), account, req.Amount); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
