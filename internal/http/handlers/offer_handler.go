package handlers

import (
	"strconv"

	"github.com/energy-marketplace/backend/internal/http/dto"
	"github.com/energy-marketplace/backend/internal/middleware"
	"github.com/energy-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offerService *services.OfferService
	log          *zap.Logger
}

func NewOfferHandler(offerService *services.OfferService, log *zap.Logger) *OfferHandler {
	return &OfferHandler{offerService: offerService, log: log}
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}

func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	var req dto.CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	producer := middleware.GetAccountID(c)
	offer, err := h.offerService.CreateOffer(c.Context(), producer, req.Quantity, req.UnitPrice, req.Duration)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: offer})
}

func (h *OfferHandler) CancelOffer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid offer id"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.offerService.CancelOffer(c.Context(), caller, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OfferHandler) AcceptOffer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid offer id"})
	}

	var req dto.AcceptOfferRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.DeliveryHours == 0 {
		req.DeliveryHours = 24
	}

	buyer := middleware.GetAccountID(c)
	result, err := h.offerService.AcceptOffer(c.Context(), buyer, id, req.DeliveryHours)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid offer id"})
	}

	offer, err := h.offerService.GetOffer(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: offer})
}

func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	producerStr := c.Query("producer")
	producer := middleware.GetAccountID(c)
	if producerStr != "" {
		p, err := uuid.Parse(producerStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid producer"})
		}
		producer = p
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	offers, err := h.offerService.ListByProducer(c.Context(), producer, limit, offset)
	if err != nil {
		h.log.Error("list offers failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: offers})
}

func (h *OfferHandler) NextOfferID(c *fiber.Ctx) error {
	next, err := h.offerService.NextOfferID(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NextIDResponse{NextID: next}})
}

func (h *OfferHandler) PreviewFee(c *fiber.Ctx) error {
	amount, err := strconv.ParseInt(c.Query("amount", "0"), 10, 64)
	if err != nil || amount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	fee, err := h.offerService.PreviewFee(c.Context(), amount)
	if err != nil {
		return respondError(c, err)
	}

	platform, err := h.offerService.GetPlatform(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.FeePreviewResponse{
		Amount:     amount,
		Fee:        fee,
		FeeRateBPS: platform.FeeRateBPS,
	}})
}

func (h *OfferHandler) GetPlatform(c *fiber.Ctx) error {
	platform, err := h.offerService.GetPlatform(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: platform})
}

func (h *OfferHandler) SetFeeRate(c *fiber.Ctx) error {
	var req dto.SetFeeRateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.offerService.SetFeeRate(c.Context(), caller, req.FeeRateBPS); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OfferHandler) SetFeeRecipient(c *fiber.Ctx) error {
	var req dto.SetAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	account, err := uuid.Parse(req.Account)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account"})
	}

	caller := middleware.GetAccountID(c)
	if err := h.offerService.SetFeeRecipient(c.Context(), caller, account); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OfferHandler) GetOfferEvents(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid offer id"})
	}

	entries, err := h.offerService.GetOfferEvents(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
