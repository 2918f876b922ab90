package ingestion

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// RawRecordStore persists raw transaction records idempotently.
type RawRecordStore interface {
	InsertIfAbsent(ctx context.Context, rec *model.RawTransactionRecord) (bool, error)
}

// TerminalMapper resolves a terminal code to its store at a point in time.
type TerminalMapper interface {
	GetTerminalMapping(ctx context.Context, terminalCode string, at time.Time) (*model.TerminalMapping, error)
}

// FeeComputer processes a freshly ingested record into the ledger. Per-record
// business failures are diverted internally and reported as diverted=true; an
// error return means the storage layer itself failed.
type FeeComputer interface {
	Process(ctx context.Context, rec *model.RawTransactionRecord) (diverted bool, err error)
}

// Report counts per-outcome results of one ingestion pass.
type Report struct {
	Inserted         int `json:"inserted"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	Unmatched        int `json:"unmatched"`
	Diverted         int `json:"diverted"`
	Failed           int `json:"failed"`
}

// Pipeline deduplicates and persists acquirer transaction records, then hands
// store-matched records to fee computation. Safe to re-run over overlapping
// windows: the acquirer transaction identifier is the idempotency key.
type Pipeline struct {
	raw    RawRecordStore
	mapper TerminalMapper
	fees   FeeComputer
}

func NewPipeline(raw RawRecordStore, mapper TerminalMapper, fees FeeComputer) *Pipeline {
	return &Pipeline{raw: raw, mapper: mapper, fees: fees}
}

// Ingest processes up to limit records; limit <= 0 means no cap. Records with
// no terminal mapping valid at their timestamp are retained unmatched for the
// manual adjustments pass, never dropped.
func (p *Pipeline) Ingest(ctx context.Context, records []AcquirerTransaction, limit int) (*Report, error) {
	report := &Report{}

	for i := range records {
		if limit > 0 && report.Inserted+report.SkippedDuplicate+report.Failed >= limit {
			break
		}
		in := &records[i]

		rec := &model.RawTransactionRecord{
			AcquirerTxID:  in.AcquirerTxID,
			Acquirer:      in.Acquirer,
			TerminalCode:  in.TerminalCode,
			OccurredAt:    in.OccurredAt,
			GrossAmount:   in.GrossAmount,
			NetAmount:     in.NetAmount,
			Operation:     in.Operation,
			Installments:  in.Installments,
			CardBrand:     in.CardBrand,
			PayerDocument: in.PayerDocument,
		}

		mapping, err := p.mapper.GetTerminalMapping(ctx, in.TerminalCode, in.OccurredAt)
		if err != nil {
			return report, err
		}
		if mapping != nil {
			rec.StoreID = &mapping.StoreID
		}

		inserted, err := p.raw.InsertIfAbsent(ctx, rec)
		if err != nil {
			log.Warn().Err(err).Str("acquirer_tx_id", in.AcquirerTxID).Msg("insert failed")
			report.Failed++
			continue
		}
		if !inserted {
			report.SkippedDuplicate++
			continue
		}
		report.Inserted++

		if rec.StoreID == nil {
			log.Info().
				Str("acquirer_tx_id", in.AcquirerTxID).
				Str("terminal", in.TerminalCode).
				Msg("no terminal mapping at transaction time, retained unmatched")
			report.Unmatched++
			continue
		}

		if p.fees != nil {
			diverted, err := p.fees.Process(ctx, rec)
			if err != nil {
				log.Warn().Err(err).Str("acquirer_tx_id", in.AcquirerTxID).Msg("fee computation hand-off failed")
				report.Failed++
				continue
			}
			if diverted {
				report.Diverted++
			}
		}
	}

	return report, nil
}
