package fees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
	"github.com/pagwall/gateway-settlement/internal/repository"
)

// ErrComputationDomain marks a per-record arithmetic or data failure. It is
// diverted to the error ledger, never propagated out of a batch.
var ErrComputationDomain = errors.New("computation domain error")

// StoreBillingReader resolves the plan and Wall modality for a store.
type StoreBillingReader interface {
	GetBilling(ctx context.Context, storeID int64) (int64, model.Modality, error)
}

// ParameterResolver looks up the parameter-set version valid at a reference
// time. Must return repository.ErrParameterNotFound when no window matches.
type ParameterResolver interface {
	Resolve(ctx context.Context, storeID, planID int64, modality model.Modality, ref time.Time) (*model.ParameterSet, error)
}

// LedgerWriter persists a computed entry and flips the raw record's processed
// flag atomically. Returns false when the record was already processed.
type LedgerWriter interface {
	InsertComputed(ctx context.Context, entry *model.ManagementLedgerEntry) (bool, error)
}

// ErrorWriter records a per-record failure for manual review.
type ErrorWriter interface {
	Insert(ctx context.Context, entry *model.ErrorLedgerEntry) error
}

// Engine computes the chain of derived monetary values for raw transaction
// records and persists them into the management ledger.
type Engine struct {
	billing StoreBillingReader
	params  ParameterResolver
	ledger  LedgerWriter
	errs    ErrorWriter
}

func NewEngine(billing StoreBillingReader, params ParameterResolver, ledger LedgerWriter, errs ErrorWriter) *Engine {
	return &Engine{billing: billing, params: params, ledger: ledger, errs: errs}
}

// Process resolves parameters for the record, computes the full chain and
// persists it. Parameter misses and domain errors go to the error ledger and
// return diverted=true so the batch continues but still counts them; only
// storage failures return an error.
func (e *Engine) Process(ctx context.Context, rec *model.RawTransactionRecord) (diverted bool, err error) {
	if rec.StoreID == nil {
		return false, fmt.Errorf("record %s has no store, cannot compute", rec.AcquirerTxID)
	}

	planID, modality, err := e.billing.GetBilling(ctx, *rec.StoreID)
	if err != nil {
		return false, fmt.Errorf("resolve billing for store %d: %w", *rec.StoreID, err)
	}

	ps, err := e.params.Resolve(ctx, *rec.StoreID, planID, modality, rec.OccurredAt)
	if errors.Is(err, repository.ErrParameterNotFound) {
		return true, e.divert(ctx, rec, "parameter_resolution", err.Error())
	}
	if err != nil {
		return false, err
	}

	entry, err := Compute(rec, planID, modality, ps)
	if errors.Is(err, ErrComputationDomain) {
		return true, e.divert(ctx, rec, "fee_computation", err.Error())
	}
	if err != nil {
		return false, err
	}

	inserted, err := e.ledger.InsertComputed(ctx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		log.Debug().Str("acquirer_tx_id", rec.AcquirerTxID).Msg("record already processed, skipping")
	}
	return false, nil
}

func (e *Engine) divert(ctx context.Context, rec *model.RawTransactionRecord, stage, reason string) error {
	log.Warn().
		Str("acquirer_tx_id", rec.AcquirerTxID).
		Str("stage", stage).
		Str("reason", reason).
		Msg("record diverted to error ledger")

	return e.errs.Insert(ctx, &model.ErrorLedgerEntry{
		RawRecordID:  rec.ID,
		AcquirerTxID: rec.AcquirerTxID,
		Stage:        stage,
		Reason:       reason,
	})
}

// Compute derives the full monetary chain for one record under one parameter
// set. Pure: identical inputs always yield identical entries. Intermediate
// values are kept at full precision; rounding happens at persistence.
func Compute(rec *model.RawTransactionRecord, planID int64, modality model.Modality, ps *model.ParameterSet) (*model.ManagementLedgerEntry, error) {
	if rec.GrossAmount.Sign() <= 0 {
		return nil, fmt.Errorf("gross amount %s is not positive: %w", rec.GrossAmount, ErrComputationDomain)
	}
	if rec.Installments < 1 {
		return nil, fmt.Errorf("installment count %d invalid: %w", rec.Installments, ErrComputationDomain)
	}
	if rec.Installments > ps.MaxInstallments {
		return nil, fmt.Errorf("installment count %d exceeds plan maximum %d: %w",
			rec.Installments, ps.MaxInstallments, ErrComputationDomain)
	}

	discountRate, err := discountRateFor(rec, ps)
	if err != nil {
		return nil, err
	}

	clientDiscount := rec.GrossAmount.Mul(discountRate)
	if discountRate.Sign() > 0 && clientDiscount.LessThan(ps.MinFeeAmount) {
		clientDiscount = ps.MinFeeAmount
	}
	adjusted := rec.GrossAmount.Sub(clientDiscount)

	anticipation := decimal.Zero
	tax := decimal.Zero
	rebate := decimal.Zero

	if modality == model.ModalityWall {
		// Debit settles in a single installment with no anticipation;
		// credit and TEF anticipate over the average installment horizon.
		if rec.Operation != model.OperationDebit {
			horizon := decimal.NewFromInt(int64(rec.Installments) + 1).Div(decimal.NewFromInt(2))
			anticipation = adjusted.Mul(ps.AnticipationRate).Mul(horizon)
			tax = anticipation.Mul(ps.TaxRate)
		}
		if rec.Installments > 1 {
			rebate = adjusted.Mul(ps.RebateRateInstallment)
		} else {
			rebate = adjusted.Mul(ps.RebateRateSingle)
		}
	}

	netToStore := rec.NetAmount.Sub(anticipation).Sub(tax).Add(rebate)
	if netToStore.Sign() < 0 {
		return nil, fmt.Errorf("net to store %s is negative: %w", netToStore, ErrComputationDomain)
	}

	return &model.ManagementLedgerEntry{
		RawRecordID:        rec.ID,
		AcquirerTxID:       rec.AcquirerTxID,
		StoreID:            *rec.StoreID,
		PlanID:             planID,
		SourceQueueID:      &rec.ID,
		Operation:          rec.Operation,
		Installments:       rec.Installments,
		Modality:           modality,
		GrossAmount:        rec.GrossAmount,
		AcquirerNetAmount:  rec.NetAmount,
		ClientDiscount:     clientDiscount,
		AdjustedAmount:     adjusted,
		AnticipationAmount: anticipation,
		TaxAmount:          tax,
		AnticipationTotal:  anticipation.Add(tax),
		RebateAmount:       rebate,
		NetToStore:         netToStore,
	}, nil
}

func discountRateFor(rec *model.RawTransactionRecord, ps *model.ParameterSet) (decimal.Decimal, error) {
	switch rec.Operation {
	case model.OperationDebit:
		return ps.DebitDiscountRate, nil
	case model.OperationTEF:
		return ps.TEFDiscountRate, nil
	case model.OperationCredit:
		if rec.Installments > 1 {
			return ps.InstallmentDiscountRate, nil
		}
		return ps.CashDiscountRate, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown operation class %q: %w", rec.Operation, ErrComputationDomain)
	}
}
