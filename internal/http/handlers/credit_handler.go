package handlers

import (
	"github.com/energy-marketplace/backend/internal/http/dto"
	"github.com/energy-marketplace/backend/internal/middleware"
	"github.com/energy-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreditHandler struct {
	creditService *services.CreditService
	log           *zap.Logger
}

func NewCreditHandler(creditService *services.CreditService, log *zap.Logger) *CreditHandler {
	return &CreditHandler{creditService: creditService, log: log}
}

func parseAccount(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.ErrBadRequest
	}
	return id, nil
}

func (h *CreditHandler) Register(c *fiber.Ctx) error {
	caller := middleware.GetAccountID(c)
	if err := h.creditService.RegisterAccount(c.Context(), caller); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true})
}

func (h *CreditHandler) Mint(c *fiber.Ctx) error {
	var req dto.MintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	recipient, err := uuid.Parse(req.Recipient)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid recipient"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.creditService.MintFromTrade(c.Context(), caller, req.TradeID, recipient, req.Amount); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CreditHandler) Transfer(c *fiber.Ctx) error {
	var req dto.TransferCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	sender, err := uuid.Parse(req.Sender)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid sender"})
	}
	recipient, err := uuid.Parse(req.Recipient)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid recipient"})
	}

	caller := middleware.GetAccountID(c)
	ok, err := h.creditService.Transfer(c.Context(), caller, req.Amount, sender, recipient)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.TransferResultResponse{OK: ok}})
}

func (h *CreditHandler) Burn(c *fiber.Ctx) error {
	var req dto.BurnCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	caller := middleware.GetAccountID(c)
	ok, err := h.creditService.Burn(c.Context(), caller, req.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.TransferResultResponse{OK: ok}})
}

func (h *CreditHandler) SetAttestationAuthority(c *fiber.Ctx) error {
	var req dto.SetAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	authority, err := uuid.Parse(req.Account)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.creditService.SetAttestationAuthority(c.Context(), caller, authority); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CreditHandler) BalanceOf(c *fiber.Ctx) error {
	account, err := parseAccount(c, "account")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account"})
	}

	balance, err := h.creditService.BalanceOf(c.Context(), account)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{
		Account: account.String(),
		Balance: balance,
	}})
}

func (h *CreditHandler) TotalSupply(c *fiber.Ctx) error {
	supply, err := h.creditService.TotalSupply(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.SupplyResponse{TotalSupply: supply}})
}

func (h *CreditHandler) GetAccount(c *fiber.Ctx) error {
	account, err := parseAccount(c, "account")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account"})
	}

	info, err := h.creditService.GetAccount(c.Context(), account)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: info})
}

func (h *CreditHandler) IsTradeMinted(c *fiber.Ctx) error {
	tradeID, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	minted, err := h.creditService.IsTradeMinted(c.Context(), tradeID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MintedResponse{
		TradeID: tradeID,
		Minted:  minted,
	}})
}
