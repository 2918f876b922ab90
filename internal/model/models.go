package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gateway identifies a payment acquirer.
type Gateway string

const (
	GatewayPinbank Gateway = "PINBANK"
	GatewayOwn     Gateway = "OWN"
)

// Modality flags participation in the Wall rebate program.
type Modality string

const (
	ModalityWall     Modality = "S"
	ModalityStandard Modality = "N"
)

// OperationClass partitions transactions for parameter selection.
type OperationClass string

const (
	OperationDebit  OperationClass = "DEBIT"
	OperationCredit OperationClass = "CREDIT"
	OperationTEF    OperationClass = "TEF"
)

type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ChannelID int64     `json:"channel_id"`
	Gateway   *Gateway  `json:"gateway,omitempty"`
	PlanID    int64     `json:"plan_id"`
	Modality  Modality  `json:"modality"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AcquirerCredential struct {
	ID       int64   `json:"id"`
	StoreID  int64   `json:"store_id"`
	Acquirer Gateway `json:"acquirer"`
	// Merchant document (CNPJ) registered with the acquirer.
	Document string `json:"document"`
	Active   bool   `json:"active"`
}

// TerminalMapping binds an acquirer terminal code to a store for a time range.
// ValidTo is nil while the mapping is current.
type TerminalMapping struct {
	ID           int64      `json:"id"`
	StoreID      int64      `json:"store_id"`
	TerminalCode string     `json:"terminal_code"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
}

// RawTransactionRecord is one acquirer-reported transaction, keyed by the
// acquirer transaction identifier. StoreID is nil when no terminal mapping
// matched at ingestion time; such records are retained for manual review.
type RawTransactionRecord struct {
	ID            int64           `json:"id"`
	AcquirerTxID  string          `json:"acquirer_tx_id"`
	Acquirer      Gateway         `json:"acquirer"`
	StoreID       *int64          `json:"store_id,omitempty"`
	TerminalCode  string          `json:"terminal_code"`
	OccurredAt    time.Time       `json:"occurred_at"`
	GrossAmount   decimal.Decimal `json:"gross_amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	Operation     OperationClass  `json:"operation"`
	Installments  int             `json:"installments"`
	CardBrand     string          `json:"card_brand"`
	PayerDocument string          `json:"payer_document"`
	Read          bool            `json:"read"`
	Processed     bool            `json:"processed"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RawSettlementRecord is one acquirer-reported liquidation event.
// AcquirerTxID may be empty when the acquirer did not carry the linkage.
type RawSettlementRecord struct {
	ID                   int64           `json:"id"`
	AcquirerSettlementID string          `json:"acquirer_settlement_id"`
	AcquirerTxID         string          `json:"acquirer_tx_id,omitempty"`
	Acquirer             Gateway         `json:"acquirer"`
	SettledOn            time.Time       `json:"settled_on"`
	Amount               decimal.Decimal `json:"amount"`
	Processed            bool            `json:"processed"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ParameterSet is one vigência window of fee/tax configuration for a
// (store, plan, modality) key. VigenciaFim nil marks the current version.
type ParameterSet struct {
	ID             int64      `json:"id"`
	StoreID        int64      `json:"store_id"`
	PlanID         int64      `json:"plan_id"`
	Modality       Modality   `json:"modality"`
	VigenciaInicio time.Time  `json:"vigencia_inicio"`
	VigenciaFim    *time.Time `json:"vigencia_fim,omitempty"`

	// Rates are fractions (0.029 = 2.9%), never percentages.
	DebitDiscountRate       decimal.Decimal `json:"debit_discount_rate"`
	CashDiscountRate        decimal.Decimal `json:"cash_discount_rate"`
	InstallmentDiscountRate decimal.Decimal `json:"installment_discount_rate"`
	TEFDiscountRate         decimal.Decimal `json:"tef_discount_rate"`
	AnticipationRate        decimal.Decimal `json:"anticipation_rate"`
	TaxRate                 decimal.Decimal `json:"tax_rate"`
	RebateRateSingle        decimal.Decimal `json:"rebate_rate_single"`
	RebateRateInstallment   decimal.Decimal `json:"rebate_rate_installment"`
	MinFeeAmount            decimal.Decimal `json:"min_fee_amount"`
	MaxInstallments         int             `json:"max_installments"`
}

// ManagementLedgerEntry holds the full computed chain for one processed
// transaction. Every intermediate component is persisted for audit.
type ManagementLedgerEntry struct {
	ID           int64   `json:"id"`
	RawRecordID  int64   `json:"raw_record_id"`
	AcquirerTxID string  `json:"acquirer_tx_id"`
	StoreID      int64   `json:"store_id"`
	PlanID       int64   `json:"plan_id"`
	// SourceQueueID links the entry to its extrato/fila origin; nil marks a
	// manually inserted entry, which the dedup pass treats as non-authoritative.
	SourceQueueID *int64         `json:"source_queue_id,omitempty"`
	Operation     OperationClass `json:"operation"`
	Installments  int            `json:"installments"`
	Modality      Modality       `json:"modality"`

	GrossAmount        decimal.Decimal `json:"gross_amount"`
	AcquirerNetAmount  decimal.Decimal `json:"acquirer_net_amount"`
	ClientDiscount     decimal.Decimal `json:"client_discount"`
	AdjustedAmount     decimal.Decimal `json:"adjusted_amount"`
	AnticipationAmount decimal.Decimal `json:"anticipation_amount"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	AnticipationTotal  decimal.Decimal `json:"anticipation_total"`
	RebateAmount       decimal.Decimal `json:"rebate_amount"`
	NetToStore         decimal.Decimal `json:"net_to_store"`

	SettlementID *string    `json:"settlement_id,omitempty"`
	SettledOn    *time.Time `json:"settled_on,omitempty"`
	ComputedAt   time.Time  `json:"computed_at"`
}

// ErrorLedgerEntry records a per-record computation failure for manual review.
type ErrorLedgerEntry struct {
	ID           string    `json:"id"`
	RawRecordID  int64     `json:"raw_record_id"`
	AcquirerTxID string    `json:"acquirer_tx_id"`
	Stage        string    `json:"stage"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}
