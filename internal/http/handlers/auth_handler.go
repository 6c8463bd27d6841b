package handlers

import (
	"crypto/subtle"

	"github.com/energy-marketplace/backend/internal/auth"
	"github.com/energy-marketplace/backend/internal/config"
	"github.com/energy-marketplace/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler bridges the external identity service to JWTs. Identity
// verification itself happens outside the marketplace; a caller holding the
// shared service key can obtain a token for any account id it vouches for.
type AuthHandler struct {
	cfg *config.Config
	log *zap.Logger
}

func NewAuthHandler(cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log}
}

func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.AuthTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if h.cfg.IdentityServiceKey == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "token issuance is disabled"})
	}
	if subtle.ConstantTimeCompare([]byte(req.ServiceKey), []byte(h.cfg.IdentityServiceKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid service key"})
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid account_id"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, accountID, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token})
}
