package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

const (
	pinbankDateTimeLayout = "02/01/2006 15:04:05"
	pinbankDateLayout     = "02/01/2006"
)

// PinbankIngestClient pulls the Pinbank extrato and liquidação feeds. The
// wire format carries Brazilian date and decimal-comma conventions; all of
// that is normalized here.
type PinbankIngestClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewPinbankIngestClient(baseURL, apiKey string, timeout time.Duration) *PinbankIngestClient {
	return &PinbankIngestClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *PinbankIngestClient) Acquirer() model.Gateway { return model.GatewayPinbank }

type pinbankExtractRow struct {
	IdTransacao  string `json:"IdTransacao"`
	Terminal     string `json:"Terminal"`
	DataHora     string `json:"DataHora"`
	ValorBruto   string `json:"ValorBruto"`
	ValorLiquido string `json:"ValorLiquido"`
	TipoOperacao string `json:"TipoOperacao"`
	QtdParcelas  int    `json:"QtdParcelas"`
	Bandeira     string `json:"Bandeira"`
	CpfPortador  string `json:"CpfPortador"`
}

type pinbankExtractResponse struct {
	Registros []pinbankExtractRow `json:"Registros"`
}

func (c *PinbankIngestClient) FetchTransactions(ctx context.Context, accountRef string, w Window) ([]AcquirerTransaction, error) {
	var resp pinbankExtractResponse
	if err := c.get(ctx, "/api/extrato", accountRef, w, &resp); err != nil {
		return nil, err
	}

	txns := make([]AcquirerTransaction, 0, len(resp.Registros))
	for _, row := range resp.Registros {
		occurredAt, err := time.Parse(pinbankDateTimeLayout, row.DataHora)
		if err != nil {
			return nil, fmt.Errorf("parse pinbank timestamp %q: %w", row.DataHora, err)
		}
		gross, err := parseBrazilianDecimal(row.ValorBruto)
		if err != nil {
			return nil, fmt.Errorf("parse pinbank gross %q: %w", row.ValorBruto, err)
		}
		net, err := parseBrazilianDecimal(row.ValorLiquido)
		if err != nil {
			return nil, fmt.Errorf("parse pinbank net %q: %w", row.ValorLiquido, err)
		}

		installments := row.QtdParcelas
		if installments < 1 {
			installments = 1
		}

		txns = append(txns, AcquirerTransaction{
			AcquirerTxID:  "PB-" + row.IdTransacao,
			Acquirer:      model.GatewayPinbank,
			TerminalCode:  row.Terminal,
			OccurredAt:    occurredAt,
			GrossAmount:   gross,
			NetAmount:     net,
			Operation:     pinbankOperation(row.TipoOperacao),
			Installments:  installments,
			CardBrand:     row.Bandeira,
			PayerDocument: row.CpfPortador,
		})
	}
	return txns, nil
}

type pinbankSettlementRow struct {
	IdLiquidacao  string `json:"IdLiquidacao"`
	IdTransacao   string `json:"IdTransacao"`
	DataPagamento string `json:"DataPagamento"`
	Valor         string `json:"Valor"`
}

type pinbankSettlementResponse struct {
	Liquidacoes []pinbankSettlementRow `json:"Liquidacoes"`
}

func (c *PinbankIngestClient) FetchSettlements(ctx context.Context, accountRef string, w Window) ([]AcquirerSettlement, error) {
	var resp pinbankSettlementResponse
	if err := c.get(ctx, "/api/liquidacoes", accountRef, w, &resp); err != nil {
		return nil, err
	}

	setts := make([]AcquirerSettlement, 0, len(resp.Liquidacoes))
	for _, row := range resp.Liquidacoes {
		settledOn, err := time.Parse(pinbankDateLayout, row.DataPagamento)
		if err != nil {
			return nil, fmt.Errorf("parse pinbank settlement date %q: %w", row.DataPagamento, err)
		}
		amount, err := parseBrazilianDecimal(row.Valor)
		if err != nil {
			return nil, fmt.Errorf("parse pinbank settlement amount %q: %w", row.Valor, err)
		}

		txID := ""
		if row.IdTransacao != "" {
			txID = "PB-" + row.IdTransacao
		}
		setts = append(setts, AcquirerSettlement{
			AcquirerSettlementID: "PB-LIQ-" + row.IdLiquidacao,
			AcquirerTxID:         txID,
			Acquirer:             model.GatewayPinbank,
			SettledOn:            settledOn,
			Amount:               amount,
		})
	}
	return setts, nil
}

func (c *PinbankIngestClient) get(ctx context.Context, path, accountRef string, w Window, out any) error {
	q := url.Values{}
	q.Set("cnpj", accountRef)
	q.Set("inicio", w.From.Format(pinbankDateLayout))
	q.Set("fim", w.To.Format(pinbankDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build pinbank request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pinbank unavailable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("pinbank unavailable: status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode pinbank extract: %w", err)
	}
	return nil
}

func pinbankOperation(tipo string) model.OperationClass {
	switch strings.ToUpper(tipo) {
	case "D":
		return model.OperationDebit
	case "T":
		return model.OperationTEF
	default:
		return model.OperationCredit
	}
}

// parseBrazilianDecimal converts "1.234,56" into a decimal value.
func parseBrazilianDecimal(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(s, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	return decimal.NewFromString(normalized)
}
