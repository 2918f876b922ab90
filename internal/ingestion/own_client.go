package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// OwnIngestClient pulls transaction and settlement reports from the Own
// Financial API. Own reports amounts in integer cents and RFC3339 timestamps.
type OwnIngestClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewOwnIngestClient(baseURL, apiKey string, timeout time.Duration) *OwnIngestClient {
	return &OwnIngestClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *OwnIngestClient) Acquirer() model.Gateway { return model.GatewayOwn }

type ownReportTransaction struct {
	ID           string `json:"id"`
	Terminal     string `json:"terminal"`
	OccurredAt   string `json:"occurred_at"`
	GrossCents   int64  `json:"gross_cents"`
	NetCents     int64  `json:"net_cents"`
	Type         string `json:"type"`
	Installments int    `json:"installments"`
	Brand        string `json:"brand"`
	PayerDoc     string `json:"payer_doc"`
}

type ownTransactionsResponse struct {
	Transactions []ownReportTransaction `json:"transactions"`
}

func (c *OwnIngestClient) FetchTransactions(ctx context.Context, accountRef string, w Window) ([]AcquirerTransaction, error) {
	var resp ownTransactionsResponse
	if err := c.get(ctx, "/v1/reports/transactions", accountRef, w, &resp); err != nil {
		return nil, err
	}

	txns := make([]AcquirerTransaction, 0, len(resp.Transactions))
	for _, row := range resp.Transactions {
		occurredAt, err := time.Parse(time.RFC3339, row.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse own timestamp %q: %w", row.OccurredAt, err)
		}

		installments := row.Installments
		if installments < 1 {
			installments = 1
		}

		txns = append(txns, AcquirerTransaction{
			AcquirerTxID:  "OW-" + row.ID,
			Acquirer:      model.GatewayOwn,
			TerminalCode:  row.Terminal,
			OccurredAt:    occurredAt,
			GrossAmount:   centsToDecimal(row.GrossCents),
			NetAmount:     centsToDecimal(row.NetCents),
			Operation:     ownOperation(row.Type),
			Installments:  installments,
			CardBrand:     row.Brand,
			PayerDocument: row.PayerDoc,
		})
	}
	return txns, nil
}

type ownReportSettlement struct {
	ID          string `json:"id"`
	PaymentID   string `json:"payment_id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
}

type ownSettlementsResponse struct {
	Settlements []ownReportSettlement `json:"settlements"`
}

func (c *OwnIngestClient) FetchSettlements(ctx context.Context, accountRef string, w Window) ([]AcquirerSettlement, error) {
	var resp ownSettlementsResponse
	if err := c.get(ctx, "/v1/reports/settlements", accountRef, w, &resp); err != nil {
		return nil, err
	}

	setts := make([]AcquirerSettlement, 0, len(resp.Settlements))
	for _, row := range resp.Settlements {
		settledOn, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, fmt.Errorf("parse own settlement date %q: %w", row.Date, err)
		}

		txID := ""
		if row.PaymentID != "" {
			txID = "OW-" + row.PaymentID
		}
		setts = append(setts, AcquirerSettlement{
			AcquirerSettlementID: "OW-SET-" + row.ID,
			AcquirerTxID:         txID,
			Acquirer:             model.GatewayOwn,
			SettledOn:            settledOn,
			Amount:               centsToDecimal(row.AmountCents),
		})
	}
	return setts, nil
}

func (c *OwnIngestClient) get(ctx context.Context, path, accountRef string, w Window, out any) error {
	q := url.Values{}
	q.Set("merchant_doc", accountRef)
	q.Set("from", w.From.Format(time.RFC3339))
	q.Set("to", w.To.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build own request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("own unavailable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("own unavailable: status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode own report: %w", err)
	}
	return nil
}

func ownOperation(t string) model.OperationClass {
	switch t {
	case "debit":
		return model.OperationDebit
	case "tef":
		return model.OperationTEF
	default:
		return model.OperationCredit
	}
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
