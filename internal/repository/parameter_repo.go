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

// ErrParameterNotFound marks a (store, plan, modality, reference time) lookup
// with no matching vigência window. Callers divert the originating record to
// the error ledger instead of aborting the batch.
var ErrParameterNotFound = errors.New("parameter set not found")

type ParameterRepository struct {
	pool *pgxpool.Pool
}

func NewParameterRepository(pool *pgxpool.Pool) *ParameterRepository {
	return &ParameterRepository{pool: pool}
}

// Resolve selects the parameter-set version whose validity window contains the
// reference time. Window start is inclusive, end exclusive; a null end means
// currently active. When windows overlap the most recent start wins.
func (r *ParameterRepository) Resolve(ctx context.Context, storeID, planID int64, modality model.Modality, ref time.Time) (*model.ParameterSet, error) {
	var ps model.ParameterSet
	err := r.pool.QueryRow(ctx,
		`SELECT id, store_id, plan_id, modality, vigencia_inicio, vigencia_fim,
			debit_discount_rate, cash_discount_rate, installment_discount_rate,
			tef_discount_rate, anticipation_rate, tax_rate,
			rebate_rate_single, rebate_rate_installment, min_fee_amount, max_installments
		FROM parameter_sets
		WHERE store_id = $1 AND plan_id = $2 AND modality = $3
			AND vigencia_inicio <= $4
			AND (vigencia_fim IS NULL OR vigencia_fim > $4)
		ORDER BY vigencia_inicio DESC
		LIMIT 1`,
		storeID, planID, modality, ref,
	).Scan(&ps.ID, &ps.StoreID, &ps.PlanID, &ps.Modality, &ps.VigenciaInicio, &ps.VigenciaFim,
		&ps.DebitDiscountRate, &ps.CashDiscountRate, &ps.InstallmentDiscountRate,
		&ps.TEFDiscountRate, &ps.AnticipationRate, &ps.TaxRate,
		&ps.RebateRateSingle, &ps.RebateRateInstallment, &ps.MinFeeAmount, &ps.MaxInstallments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store %d plan %d modality %s at %s: %w",
			storeID, planID, modality, ref.Format(time.RFC3339), ErrParameterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve parameters: %w", err)
	}
	return &ps, nil
}
