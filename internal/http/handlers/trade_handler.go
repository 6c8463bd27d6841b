package handlers

import (
	"github.com/energy-marketplace/backend/internal/http/dto"
	"github.com/energy-marketplace/backend/internal/middleware"
	"github.com/energy-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TradeHandler struct {
	tradeService *services.TradeService
	log          *zap.Logger
}

func NewTradeHandler(tradeService *services.TradeService, log *zap.Logger) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, log: log}
}

func (h *TradeHandler) GetTrade(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	trade, err := h.tradeService.GetTrade(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: trade})
}

func (h *TradeHandler) GetTradeByOffer(c *fiber.Ctx) error {
	offerID, err := parseID(c, "offerId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid offer id"})
	}

	trade, err := h.tradeService.GetTradeByOffer(c.Context(), offerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: trade})
}

func (h *TradeHandler) NextTradeID(c *fiber.Ctx) error {
	next, err := h.tradeService.NextTradeID(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NextIDResponse{NextID: next}})
}

func (h *TradeHandler) SubmitProof(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	var req dto.SubmitProofRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Proof == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "proof is required"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.tradeService.SubmitOracleProof(c.Context(), caller, id, []byte(req.Proof)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TradeHandler) ReleaseFunds(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.tradeService.ReleaseFunds(c.Context(), caller, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TradeHandler) InitiateDispute(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.tradeService.InitiateDispute(c.Context(), caller, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TradeHandler) CancelTrade(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.tradeService.CancelTrade(c.Context(), caller, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TradeHandler) ResolveDispute(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.tradeService.ResolveDispute(c.Context(), caller, id, req.ReleaseToProducer); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TradeHandler) GetTradeEvents(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid trade id"})
	}

	entries, err := h.tradeService.GetTradeEvents(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
