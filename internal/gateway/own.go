package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// OwnClient talks to the Own Financial payments API. Own has no refund
// endpoint; Refund returns a structured failure instead of erroring.
type OwnClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewOwnClient(baseURL, apiKey string, timeout time.Duration) *OwnClient {
	return &OwnClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *OwnClient) Name() model.Gateway { return model.GatewayOwn }

type ownChargeRequest struct {
	Card struct {
		Pan      string `json:"pan"`
		Holder   string `json:"holder"`
		ExpMonth string `json:"exp_month"`
		ExpYear  string `json:"exp_year"`
		Cvv      string `json:"cvv"`
	} `json:"card"`
	AmountCents  int64 `json:"amount_cents"`
	Installments int   `json:"installments"`
	MerchantID   int64 `json:"merchant_id"`
}

type ownChargeResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Payment struct {
		ID       string `json:"id"`
		AuthCode string `json:"auth_code"`
	} `json:"payment"`
}

func (c *OwnClient) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	var body ownChargeRequest
	body.Card.Pan = req.Card.Number
	body.Card.Holder = req.Card.Holder
	body.Card.ExpMonth = req.Card.ExpiryMM
	body.Card.ExpYear = req.Card.ExpiryYY
	body.Card.Cvv = req.Card.SecureCode
	body.AmountCents = req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	body.Installments = req.Installments
	body.MerchantID = req.StoreID

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal own request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build own request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("own unavailable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return nil, fmt.Errorf("own unavailable: status %d", res.StatusCode)
	}

	var resp ownChargeResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode own response: %w", err)
	}

	message := resp.Error
	if resp.Status == "approved" {
		message = "approved"
	}

	return &ChargeResult{
		Success:           resp.Status == "approved",
		AcquirerReference: resp.Payment.ID,
		AuthorizationCode: resp.Payment.AuthCode,
		Message:           message,
		Acquirer:          model.GatewayOwn,
	}, nil
}

func (c *OwnClient) Refund(ctx context.Context, paymentID string, amount decimal.Decimal) (*RefundResult, error) {
	return &RefundResult{
		Success:  false,
		Message:  "refund not implemented by acquirer OWN",
		Acquirer: model.GatewayOwn,
	}, nil
}
