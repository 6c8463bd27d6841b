package dto

type AuthTokenRequest struct {
	AccountID  string `json:"account_id"`
	ServiceKey string `json:"service_key"`
}

type CreateOfferRequest struct {
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	Duration  int64 `json:"duration"` // epochs
}

type AcceptOfferRequest struct {
	DeliveryHours int64 `json:"delivery_hours,omitempty"` // default 24
}

type SubmitProofRequest struct {
	Proof string `json:"proof"` // opaque attestation payload
}

type ResolveDisputeRequest struct {
	ReleaseToProducer bool `json:"release_to_producer"`
}

type SetFeeRateRequest struct {
	FeeRateBPS int64 `json:"fee_rate_bps"`
}

type SetAccountRequest struct {
	Account string `json:"account"`
}

type MintRequest struct {
	TradeID   int64  `json:"trade_id"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

type TransferCreditsRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

type BurnCreditsRequest struct {
	Amount int64 `json:"amount"`
}

type DepositFundsRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}
