package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagwall/gateway-settlement/internal/model"
)

type RawTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewRawTransactionRepository(pool *pgxpool.Pool) *RawTransactionRepository {
	return &RawTransactionRepository{pool: pool}
}

// InsertIfAbsent persists the record keyed by its acquirer transaction
// identifier. Returns false when a record with the same key already exists;
// existing rows are never overwritten.
func (r *RawTransactionRepository) InsertIfAbsent(ctx context.Context, rec *model.RawTransactionRecord) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO raw_transaction_records
			(acquirer_tx_id, acquirer, store_id, terminal_code, occurred_at,
			 gross_amount, net_amount, operation, installments, card_brand, payer_document, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		ON CONFLICT (acquirer_tx_id) DO NOTHING
		RETURNING id, created_at`,
		rec.AcquirerTxID, rec.Acquirer, rec.StoreID, rec.TerminalCode, rec.OccurredAt,
		rec.GrossAmount, rec.NetAmount, rec.Operation, rec.Installments,
		rec.CardBrand, rec.PayerDocument,
	).Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert raw transaction: %w", err)
	}
	rec.Read = true
	return true, nil
}

func (r *RawTransactionRepository) GetByAcquirerTxID(ctx context.Context, acquirerTxID string) (*model.RawTransactionRecord, error) {
	rec, err := scanRawTransaction(r.pool.QueryRow(ctx,
		rawTransactionColumns+`WHERE acquirer_tx_id = $1`, acquirerTxID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListUnprocessed returns up to limit records pending fee computation, oldest
// first, restricted to records already matched to a store.
func (r *RawTransactionRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.RawTransactionRecord, error) {
	rows, err := r.pool.Query(ctx,
		rawTransactionColumns+`WHERE NOT processed AND store_id IS NOT NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}
	defer rows.Close()

	var recs []*model.RawTransactionRecord
	for rows.Next() {
		rec, err := scanRawTransaction(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteProcessedBefore removes processed records older than the cutoff.
// Unprocessed records are never eligible regardless of age.
func (r *RawTransactionRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM raw_transaction_records WHERE processed AND occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}

const rawTransactionColumns = `SELECT id, acquirer_tx_id, acquirer, store_id, terminal_code, occurred_at,
	gross_amount, net_amount, operation, installments, card_brand, payer_document, read, processed, created_at
	FROM raw_transaction_records `

func scanRawTransaction(row pgx.Row) (*model.RawTransactionRecord, error) {
	var rec model.RawTransactionRecord
	err := row.Scan(&rec.ID, &rec.AcquirerTxID, &rec.Acquirer, &rec.StoreID, &rec.TerminalCode,
		&rec.OccurredAt, &rec.GrossAmount, &rec.NetAmount, &rec.Operation, &rec.Installments,
		&rec.CardBrand, &rec.PayerDocument, &rec.Read, &rec.Processed, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan raw transaction: %w", err)
	}
	return &rec, nil
}
