package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagwall/gateway-settlement/internal/model"
)

type SettlementRepository struct {
	pool *pgxpool.Pool
}

func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

// InsertIfAbsent persists a settlement record keyed by the acquirer settlement
// identifier. Returns false on a duplicate; duplicates are never overwritten,
// which protects against re-delivered feeds double counting.
func (r *SettlementRepository) InsertIfAbsent(ctx context.Context, rec *model.RawSettlementRecord) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO raw_settlement_records
			(acquirer_settlement_id, acquirer_tx_id, acquirer, settled_on, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (acquirer_settlement_id) DO NOTHING
		RETURNING id, created_at`,
		rec.AcquirerSettlementID, rec.AcquirerTxID, rec.Acquirer, rec.SettledOn, rec.Amount,
	).Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert settlement: %w", err)
	}
	return true, nil
}

func (r *SettlementRepository) GetByAcquirerSettlementID(ctx context.Context, id string) (*model.RawSettlementRecord, error) {
	var rec model.RawSettlementRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, acquirer_settlement_id, acquirer_tx_id, acquirer, settled_on, amount, processed, created_at
		FROM raw_settlement_records WHERE acquirer_settlement_id = $1`, id,
	).Scan(&rec.ID, &rec.AcquirerSettlementID, &rec.AcquirerTxID, &rec.Acquirer,
		&rec.SettledOn, &rec.Amount, &rec.Processed, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	return &rec, nil
}

// ListUnprocessed returns settlement records not yet linked into the ledger,
// oldest first. Records stay here until their transaction arrives.
func (r *SettlementRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.RawSettlementRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, acquirer_settlement_id, acquirer_tx_id, acquirer, settled_on, amount, processed, created_at
		FROM raw_settlement_records WHERE NOT processed ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed settlements: %w", err)
	}
	defer rows.Close()

	var recs []*model.RawSettlementRecord
	for rows.Next() {
		var rec model.RawSettlementRecord
		if err := rows.Scan(&rec.ID, &rec.AcquirerSettlementID, &rec.AcquirerTxID, &rec.Acquirer,
			&rec.SettledOn, &rec.Amount, &rec.Processed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
