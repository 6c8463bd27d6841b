package events

import "context"

// Stream carrying every marketplace event.
const StreamMarketplace = "events:marketplace"

// Event types. Observational only: nothing in the protocol consumes these,
// they exist for indexers and connected clients.
const (
	EventOfferCreated       = "offer_created"
	EventOfferCancelled     = "offer_cancelled"
	EventOfferAccepted      = "offer_accepted"
	EventOfferExpired       = "offer_expired"
	EventTradeCreated       = "trade_created"
	EventTradeStatusChanged = "trade_status_changed"
	EventProofSubmitted     = "proof_submitted"
	EventFundsReleased      = "funds_released"
	EventTradeDisputed      = "trade_disputed"
	EventTradeCancelled     = "trade_cancelled"
	EventDisputeResolved    = "dispute_resolved"
	EventDeadlineElapsed    = "trade_deadline_elapsed"
	EventEnergyMinted       = "energy_minted"
	EventCreditsTransferred = "credits_transferred"
	EventCreditsBurned      = "credits_burned"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
