package ingestion

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// Window bounds an extract fetch: [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// AcquirerTransaction is the normalized transaction shape both acquirer
// clients produce. Normalization happens inside the client; the pipeline
// never sees acquirer-specific fields.
type AcquirerTransaction struct {
	AcquirerTxID  string
	Acquirer      model.Gateway
	TerminalCode  string
	OccurredAt    time.Time
	GrossAmount   decimal.Decimal
	NetAmount     decimal.Decimal
	Operation     model.OperationClass
	Installments  int
	CardBrand     string
	PayerDocument string
}

// AcquirerSettlement is the normalized liquidation event shape.
type AcquirerSettlement struct {
	AcquirerSettlementID string
	AcquirerTxID         string
	Acquirer             model.Gateway
	SettledOn            time.Time
	Amount               decimal.Decimal
}

// IngestClient fetches extract and settlement feeds from one acquirer.
type IngestClient interface {
	Acquirer() model.Gateway
	FetchTransactions(ctx context.Context, accountRef string, w Window) ([]AcquirerTransaction, error)
	FetchSettlements(ctx context.Context, accountRef string, w Window) ([]AcquirerSettlement, error)
}
