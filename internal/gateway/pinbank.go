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

// PinbankClient talks to the legacy Pinbank transaction API.
type PinbankClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewPinbankClient(baseURL, apiKey string, timeout time.Duration) *PinbankClient {
	return &PinbankClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *PinbankClient) Name() model.Gateway { return model.GatewayPinbank }

type pinbankChargeRequest struct {
	NumeroCartao    string `json:"NumeroCartao"`
	NomePortador    string `json:"NomePortador"`
	MesValidade     string `json:"MesValidade"`
	AnoValidade     string `json:"AnoValidade"`
	CodigoSeguranca string `json:"CodigoSeguranca"`
	Valor           string `json:"Valor"`
	QtdParcelas     int    `json:"QtdParcelas"`
	IdLoja          int64  `json:"IdLoja"`
}

type pinbankChargeResponse struct {
	CodigoRetorno     string `json:"CodigoRetorno"`
	Mensagem          string `json:"Mensagem"`
	IdTransacao       string `json:"IdTransacao"`
	NumeroAutorizacao string `json:"NumeroAutorizacao"`
}

func (c *PinbankClient) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	body := pinbankChargeRequest{
		NumeroCartao:    req.Card.Number,
		NomePortador:    req.Card.Holder,
		MesValidade:     req.Card.ExpiryMM,
		AnoValidade:     req.Card.ExpiryYY,
		CodigoSeguranca: req.Card.SecureCode,
		Valor:           req.Amount.StringFixed(2),
		QtdParcelas:     req.Installments,
		IdLoja:          req.StoreID,
	}

	var resp pinbankChargeResponse
	if err := c.post(ctx, "/api/transacoes/autorizar", body, &resp); err != nil {
		return nil, err
	}

	return &ChargeResult{
		Success:           resp.CodigoRetorno == "00",
		AcquirerReference: resp.IdTransacao,
		AuthorizationCode: resp.NumeroAutorizacao,
		Message:           resp.Mensagem,
		Acquirer:          model.GatewayPinbank,
	}, nil
}

type pinbankRefundResponse struct {
	CodigoRetorno string `json:"CodigoRetorno"`
	Mensagem      string `json:"Mensagem"`
}

func (c *PinbankClient) Refund(ctx context.Context, paymentID string, amount decimal.Decimal) (*RefundResult, error) {
	body := map[string]string{
		"IdTransacao": paymentID,
		"Valor":       amount.StringFixed(2),
	}

	var resp pinbankRefundResponse
	if err := c.post(ctx, "/api/transacoes/estornar", body, &resp); err != nil {
		return nil, err
	}

	return &RefundResult{
		Success:  resp.CodigoRetorno == "00",
		Message:  resp.Mensagem,
		Acquirer: model.GatewayPinbank,
	}, nil
}

func (c *PinbankClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal pinbank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build pinbank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pinbank unavailable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return fmt.Errorf("pinbank unavailable: status %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode pinbank response: %w", err)
	}
	return nil
}
