package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagwall/gateway-settlement/internal/model"
)

type ErrorLedgerRepository struct {
	pool *pgxpool.Pool
}

func NewErrorLedgerRepository(pool *pgxpool.Pool) *ErrorLedgerRepository {
	return &ErrorLedgerRepository{pool: pool}
}

func (r *ErrorLedgerRepository) Insert(ctx context.Context, entry *model.ErrorLedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO error_ledger (id, raw_record_id, acquirer_tx_id, stage, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		entry.ID, entry.RawRecordID, entry.AcquirerTxID, entry.Stage, entry.Reason,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert error ledger entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest failures for manual review.
func (r *ErrorLedgerRepository) ListRecent(ctx context.Context, limit int) ([]*model.ErrorLedgerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, raw_record_id, acquirer_tx_id, stage, reason, created_at
		FROM error_ledger ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list error ledger: %w", err)
	}
	defer rows.Close()

	var entries []*model.ErrorLedgerEntry
	for rows.Next() {
		var e model.ErrorLedgerEntry
		if err := rows.Scan(&e.ID, &e.RawRecordID, &e.AcquirerTxID, &e.Stage, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
