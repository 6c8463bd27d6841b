package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	Actor      *uuid.UUID `json:"actor,omitempty"`
	ActorType  string     `json:"actor_type"` // user/admin/oracle/system
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"` // offer/trade/credit/platform
	EntityID   *string    `json:"entity_id,omitempty"`
	Meta       any        `json:"meta,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
