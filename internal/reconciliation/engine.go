package reconciliation

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pagwall/gateway-settlement/internal/ingestion"
	"github.com/pagwall/gateway-settlement/internal/model"
	"github.com/pagwall/gateway-settlement/internal/repository"
)

// SettlementStore persists and reads raw settlement records.
type SettlementStore interface {
	InsertIfAbsent(ctx context.Context, rec *model.RawSettlementRecord) (bool, error)
	GetByAcquirerSettlementID(ctx context.Context, id string) (*model.RawSettlementRecord, error)
	ListUnprocessed(ctx context.Context, limit int) ([]*model.RawSettlementRecord, error)
}

// LedgerLinker stamps settlement linkage onto ledger entries and runs the
// maintenance dedup pass.
type LedgerLinker interface {
	LinkSettlement(ctx context.Context, settlement *model.RawSettlementRecord) (repository.LinkOutcome, error)
	DeduplicateManual(ctx context.Context) (int64, error)
}

// Report counts per-outcome results of one reconciliation pass.
type Report struct {
	Linked           int `json:"linked"`
	Unlinked         int `json:"unlinked"`
	AlreadyProcessed int `json:"already_processed"`
	Failed           int `json:"failed"`
}

// Engine matches settlement events to previously ingested transactions.
// Settlements whose transaction has not arrived yet stay stored unlinked and
// are retried by Rematch on later runs; feeds can race.
type Engine struct {
	settlements SettlementStore
	ledger      LedgerLinker
}

func NewEngine(settlements SettlementStore, ledger LedgerLinker) *Engine {
	return &Engine{settlements: settlements, ledger: ledger}
}

// Reconcile ingests a settlement feed and links each event to its ledger
// entry. Re-delivered feeds drain as already_processed without touching
// linkage state.
func (e *Engine) Reconcile(ctx context.Context, records []ingestion.AcquirerSettlement) (*Report, error) {
	report := &Report{}

	for i := range records {
		in := &records[i]

		rec := &model.RawSettlementRecord{
			AcquirerSettlementID: in.AcquirerSettlementID,
			AcquirerTxID:         in.AcquirerTxID,
			Acquirer:             in.Acquirer,
			SettledOn:            in.SettledOn,
			Amount:               in.Amount,
		}

		inserted, err := e.settlements.InsertIfAbsent(ctx, rec)
		if err != nil {
			log.Warn().Err(err).Str("settlement_id", in.AcquirerSettlementID).Msg("settlement insert failed")
			report.Failed++
			continue
		}
		if !inserted {
			stored, err := e.settlements.GetByAcquirerSettlementID(ctx, in.AcquirerSettlementID)
			if err != nil {
				report.Failed++
				continue
			}
			if stored == nil || stored.Processed {
				report.AlreadyProcessed++
				continue
			}
			// Stored but never linked: retry with the stored row.
			rec = stored
		}

		e.link(ctx, rec, report)
	}

	return report, nil
}

// Rematch retries stored, still-unlinked settlements against the ledger.
// Useful after the transaction feed catches up.
func (e *Engine) Rematch(ctx context.Context, limit int) (*Report, error) {
	pending, err := e.settlements.ListUnprocessed(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, rec := range pending {
		e.link(ctx, rec, report)
	}
	return report, nil
}

func (e *Engine) link(ctx context.Context, rec *model.RawSettlementRecord, report *Report) {
	if rec.AcquirerTxID == "" {
		report.Unlinked++
		return
	}

	outcome, err := e.ledger.LinkSettlement(ctx, rec)
	if err != nil {
		log.Warn().Err(err).Str("settlement_id", rec.AcquirerSettlementID).Msg("settlement link failed")
		report.Failed++
		return
	}

	switch outcome {
	case repository.LinkLinked:
		report.Linked++
	case repository.LinkAlreadySettled:
		report.AlreadyProcessed++
	default:
		report.Unlinked++
	}
}

// DeduplicateLedger removes manually inserted ledger entries shadowed by an
// automatic, queue-linked entry for the same transaction.
func (e *Engine) DeduplicateLedger(ctx context.Context) (int64, error) {
	deleted, err := e.ledger.DeduplicateManual(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("manual ledger entries deduplicated")
	}
	return deleted, nil
}
