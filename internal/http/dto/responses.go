package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type SupplyResponse struct {
	TotalSupply int64 `json:"total_supply"`
}

type FeePreviewResponse struct {
	Amount     int64 `json:"amount"`
	Fee        int64 `json:"fee"`
	FeeRateBPS int64 `json:"fee_rate_bps"`
}

type NextIDResponse struct {
	NextID int64 `json:"next_id"`
}

type MintedResponse struct {
	TradeID int64 `json:"trade_id"`
	Minted  bool  `json:"minted"`
}

type TransferResultResponse struct {
	OK bool `json:"ok"` // false means insufficient balance
}
