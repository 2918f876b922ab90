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

type StoreRepository struct {
	pool *pgxpool.Pool
}

func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// GetGateway returns the store's configured gateway, or nil when the store
// exists but has none set. A missing store is reported as pgx.ErrNoRows.
func (r *StoreRepository) GetGateway(ctx context.Context, storeID int64) (*model.Gateway, error) {
	var gw *model.Gateway
	err := r.pool.QueryRow(ctx,
		`SELECT gateway FROM stores WHERE id = $1 AND active`, storeID,
	).Scan(&gw)
	if err != nil {
		return nil, fmt.Errorf("get store gateway: %w", err)
	}
	return gw, nil
}

// GetBilling returns the plan and Wall modality governing fee computation for
// the store.
func (r *StoreRepository) GetBilling(ctx context.Context, storeID int64) (int64, model.Modality, error) {
	var planID int64
	var modality model.Modality
	err := r.pool.QueryRow(ctx,
		`SELECT plan_id, modality FROM stores WHERE id = $1`, storeID,
	).Scan(&planID, &modality)
	if err != nil {
		return 0, "", fmt.Errorf("get store billing: %w", err)
	}
	return planID, modality, nil
}

// GetTerminalMapping returns the mapping valid for the terminal at the given
// instant, or nil when no mapping covers it.
func (r *StoreRepository) GetTerminalMapping(ctx context.Context, terminalCode string, at time.Time) (*model.TerminalMapping, error) {
	var m model.TerminalMapping
	err := r.pool.QueryRow(ctx,
		`SELECT id, store_id, terminal_code, valid_from, valid_to
		FROM terminal_mappings
		WHERE terminal_code = $1
			AND valid_from <= $2
			AND (valid_to IS NULL OR valid_to > $2)
		ORDER BY valid_from DESC
		LIMIT 1`,
		terminalCode, at,
	).Scan(&m.ID, &m.StoreID, &m.TerminalCode, &m.ValidFrom, &m.ValidTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get terminal mapping: %w", err)
	}
	return &m, nil
}

// ListActiveCredentials returns the acquirer accounts the ingestion jobs poll.
func (r *StoreRepository) ListActiveCredentials(ctx context.Context, acquirer model.Gateway) ([]model.AcquirerCredential, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, store_id, acquirer, document, active
		FROM acquirer_credentials
		WHERE acquirer = $1 AND active
		ORDER BY id`,
		acquirer,
	)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.AcquirerCredential
	for rows.Next() {
		var c model.AcquirerCredential
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Acquirer, &c.Document, &c.Active); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}
