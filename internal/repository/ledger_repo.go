package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// LinkOutcome classifies a settlement linkage attempt.
type LinkOutcome int

const (
	LinkNoMatch LinkOutcome = iota
	LinkLinked
	LinkAlreadySettled
)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// InsertComputed persists the computed chain and flips the raw record's
// processed flag in one transaction. Monetary values are rounded to two
// decimal places here, at the persistence boundary. Returns false when the
// raw record was already processed by a concurrent or prior run; nothing is
// written in that case.
func (r *LedgerRepository) InsertComputed(ctx context.Context, entry *model.ManagementLedgerEntry) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin ledger insert: %w", err)
	}
	defer tx.Rollback(ctx)

	var rawID int64
	err = tx.QueryRow(ctx,
		`UPDATE raw_transaction_records SET processed = TRUE
		WHERE id = $1 AND NOT processed
		RETURNING id`,
		entry.RawRecordID,
	).Scan(&rawID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark raw record processed: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO management_ledger
			(raw_record_id, acquirer_tx_id, store_id, plan_id, source_queue_id,
			 operation, installments, modality,
			 gross_amount, acquirer_net_amount, client_discount, adjusted_amount,
			 anticipation_amount, tax_amount, anticipation_total, rebate_amount, net_to_store)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, computed_at`,
		entry.RawRecordID, entry.AcquirerTxID, entry.StoreID, entry.PlanID, entry.SourceQueueID,
		entry.Operation, entry.Installments, entry.Modality,
		round2(entry.GrossAmount), round2(entry.AcquirerNetAmount),
		round2(entry.ClientDiscount), round2(entry.AdjustedAmount),
		round2(entry.AnticipationAmount), round2(entry.TaxAmount),
		round2(entry.AnticipationTotal), round2(entry.RebateAmount),
		round2(entry.NetToStore),
	).Scan(&entry.ID, &entry.ComputedAt)
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit ledger insert: %w", err)
	}
	return true, nil
}

// LinkSettlement stamps the ledger entry matching the acquirer transaction
// with settlement linkage and marks the settlement record processed, both in
// one transaction. On LinkAlreadySettled the settlement record is still marked
// processed so re-delivered feeds drain instead of looping.
func (r *LedgerRepository) LinkSettlement(ctx context.Context, settlement *model.RawSettlementRecord) (LinkOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return LinkNoMatch, fmt.Errorf("begin settlement link: %w", err)
	}
	defer tx.Rollback(ctx)

	var ledgerID int64
	var existing *string
	err = tx.QueryRow(ctx,
		`SELECT id, settlement_id FROM management_ledger
		WHERE acquirer_tx_id = $1
		ORDER BY id LIMIT 1
		FOR UPDATE`,
		settlement.AcquirerTxID,
	).Scan(&ledgerID, &existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return LinkNoMatch, nil
	}
	if err != nil {
		return LinkNoMatch, fmt.Errorf("find ledger entry: %w", err)
	}

	outcome := LinkAlreadySettled
	if existing == nil {
		if _, err := tx.Exec(ctx,
			`UPDATE management_ledger SET settlement_id = $1, settled_on = $2 WHERE id = $3`,
			settlement.AcquirerSettlementID, settlement.SettledOn, ledgerID,
		); err != nil {
			return LinkNoMatch, fmt.Errorf("stamp settlement: %w", err)
		}
		outcome = LinkLinked
	}

	if _, err := tx.Exec(ctx,
		`UPDATE raw_settlement_records SET processed = TRUE WHERE id = $1`,
		settlement.ID,
	); err != nil {
		return LinkNoMatch, fmt.Errorf("mark settlement processed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return LinkNoMatch, fmt.Errorf("commit settlement link: %w", err)
	}
	return outcome, nil
}

// DeduplicateManual deletes manually inserted ledger entries (no source-queue
// linkage) shadowed by an automatic, queue-linked entry for the same
// transaction. Automatic entries are authoritative.
func (r *LedgerRepository) DeduplicateManual(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM management_ledger m
		WHERE m.source_queue_id IS NULL
			AND EXISTS (
				SELECT 1 FROM management_ledger a
				WHERE a.acquirer_tx_id = m.acquirer_tx_id
					AND a.source_queue_id IS NOT NULL
			)`)
	if err != nil {
		return 0, fmt.Errorf("deduplicate ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}

type LedgerSummary struct {
	StoreID           int64           `json:"store_id"`
	EntryCount        int             `json:"entry_count"`
	SettledCount      int             `json:"settled_count"`
	UnsettledCount    int             `json:"unsettled_count"`
	GrossTotal        decimal.Decimal `json:"gross_total"`
	ClientDiscountSum decimal.Decimal `json:"client_discount_total"`
	AnticipationSum   decimal.Decimal `json:"anticipation_total"`
	TaxSum            decimal.Decimal `json:"tax_total"`
	RebateSum         decimal.Decimal `json:"rebate_total"`
	NetToStoreTotal   decimal.Decimal `json:"net_to_store_total"`
}

// Summary aggregates the ledger for one store over a window.
func (r *LedgerRepository) Summary(ctx context.Context, storeID int64, from, to time.Time) (*LedgerSummary, error) {
	s := LedgerSummary{StoreID: storeID}
	err := r.pool.QueryRow(ctx,
		`WITH scoped AS (
			SELECT * FROM management_ledger
			WHERE store_id = $1 AND computed_at >= $2 AND computed_at < $3
		)
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE settlement_id IS NOT NULL),
			COUNT(*) FILTER (WHERE settlement_id IS NULL),
			COALESCE(SUM(gross_amount), 0),
			COALESCE(SUM(client_discount), 0),
			COALESCE(SUM(anticipation_amount), 0),
			COALESCE(SUM(tax_amount), 0),
			COALESCE(SUM(rebate_amount), 0),
			COALESCE(SUM(net_to_store), 0)
		FROM scoped`,
		storeID, from, to,
	).Scan(&s.EntryCount, &s.SettledCount, &s.UnsettledCount,
		&s.GrossTotal, &s.ClientDiscountSum, &s.AnticipationSum,
		&s.TaxSum, &s.RebateSum, &s.NetToStoreTotal)
	if err != nil {
		return nil, fmt.Errorf("ledger summary: %w", err)
	}
	return &s, nil
}

// ListByStore returns ledger entries for a store, newest first.
func (r *LedgerRepository) ListByStore(ctx context.Context, storeID int64, limit, offset int) ([]*model.ManagementLedgerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, raw_record_id, acquirer_tx_id, store_id, plan_id, source_queue_id,
			operation, installments, modality,
			gross_amount, acquirer_net_amount, client_discount, adjusted_amount,
			anticipation_amount, tax_amount, anticipation_total, rebate_amount, net_to_store,
			settlement_id, settled_on, computed_at
		FROM management_ledger
		WHERE store_id = $1
		ORDER BY computed_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		storeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.ManagementLedgerEntry
	for rows.Next() {
		var e model.ManagementLedgerEntry
		if err := rows.Scan(&e.ID, &e.RawRecordID, &e.AcquirerTxID, &e.StoreID, &e.PlanID, &e.SourceQueueID,
			&e.Operation, &e.Installments, &e.Modality,
			&e.GrossAmount, &e.AcquirerNetAmount, &e.ClientDiscount, &e.AdjustedAmount,
			&e.AnticipationAmount, &e.TaxAmount, &e.AnticipationTotal, &e.RebateAmount, &e.NetToStore,
			&e.SettlementID, &e.SettledOn, &e.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
