package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// CardData carries the live payment card details. Never persisted.
type CardData struct {
	Number     string `json:"number"`
	Holder     string `json:"holder"`
	ExpiryMM   string `json:"expiry_month"`
	ExpiryYY   string `json:"expiry_year"`
	SecureCode string `json:"secure_code"`
}

type ChargeRequest struct {
	StoreID      int64
	Card         CardData
	Amount       decimal.Decimal
	Installments int
}

// ChargeResult is the normalized response shape shared by both acquirers.
// Business declines arrive as Success=false with the acquirer's message,
// never as an error.
type ChargeResult struct {
	Success           bool          `json:"success"`
	AcquirerReference string        `json:"acquirer_reference,omitempty"`
	AuthorizationCode string        `json:"authorization_code,omitempty"`
	Message           string        `json:"message"`
	Acquirer          model.Gateway `json:"acquirer"`
}

type RefundResult struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Acquirer model.Gateway `json:"acquirer"`
}

// AcquirerClient is the per-acquirer payment adapter. Implementations
// normalize their wire shapes into ChargeResult/RefundResult at this
// boundary; nothing downstream sees acquirer-specific fields.
type AcquirerClient interface {
	Name() model.Gateway
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal) (*RefundResult, error)
}
