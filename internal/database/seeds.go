package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type storeSeed struct {
	Name     string
	Gateway  *string
	Modality string
	Document string
	Terminal string
}

func strPtr(s string) *string { return &s }

var storeSeeds = []storeSeed{
	{Name: "Mercadinho Central", Gateway: strPtr("PINBANK"), Modality: "S", Document: "12345678000190", Terminal: "PB-0001"},
	{Name: "Padaria Bom Dia", Gateway: strPtr("OWN"), Modality: "N", Document: "98765432000155", Terminal: "OW-0042"},
	// Gateway deliberately unset: exercises the PINBANK fallback.
	{Name: "Farmacia Vida", Gateway: nil, Modality: "S", Document: "45678912000133", Terminal: "PB-0077"},
}

// SeedData inserts a deterministic development dataset: one channel, three
// stores (one without a configured gateway), credentials, terminal mappings
// and three parameter-set vigência windows per store and modality.
func SeedData(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM stores`).Scan(&count); err != nil {
		return fmt.Errorf("count stores: %w", err)
	}
	if count > 0 {
		log.Info().Msg("seed data already present, skipping")
		return nil
	}

	var channelID int64
	if err := pool.QueryRow(ctx,
		`INSERT INTO channels (name) VALUES ('Canal Varejo') RETURNING id`,
	).Scan(&channelID); err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}

	now := time.Now().UTC()
	t0 := now.AddDate(0, -6, 0)
	t1 := now.AddDate(0, -3, 0)
	t2 := now.AddDate(0, -1, 0)

	for _, seed := range storeSeeds {
		var storeID int64
		if err := pool.QueryRow(ctx,
			`INSERT INTO stores (name, channel_id, gateway, plan_id, modality) VALUES ($1, $2, $3, 1, $4) RETURNING id`,
			seed.Name, channelID, seed.Gateway, seed.Modality,
		).Scan(&storeID); err != nil {
			return fmt.Errorf("insert store %s: %w", seed.Name, err)
		}

		acquirer := "PINBANK"
		if seed.Gateway != nil {
			acquirer = *seed.Gateway
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO acquirer_credentials (store_id, acquirer, document) VALUES ($1, $2, $3)`,
			storeID, acquirer, seed.Document,
		); err != nil {
			return fmt.Errorf("insert credential for %s: %w", seed.Name, err)
		}

		if _, err := pool.Exec(ctx,
			`INSERT INTO terminal_mappings (store_id, terminal_code, valid_from) VALUES ($1, $2, $3)`,
			storeID, seed.Terminal, t0,
		); err != nil {
			return fmt.Errorf("insert terminal mapping for %s: %w", seed.Name, err)
		}

		// Three consecutive vigência windows per modality; only the last is open.
		for _, modality := range []string{"S", "N"} {
			windows := []struct {
				inicio time.Time
				fim    *time.Time
				debit  float64
			}{
				{t0, &t1, 0.014},
				{t1, &t2, 0.015},
				{t2, nil, 0.016},
			}
			for _, w := range windows {
				if _, err := pool.Exec(ctx,
					`INSERT INTO parameter_sets
						(store_id, plan_id, modality, vigencia_inicio, vigencia_fim,
						 debit_discount_rate, cash_discount_rate, installment_discount_rate,
						 tef_discount_rate, anticipation_rate, tax_rate,
						 rebate_rate_single, rebate_rate_installment, min_fee_amount, max_installments)
					VALUES ($1, 1, $2, $3, $4, $5, 0.029, 0.035, 0.012, 0.019, 0.0925, 0.003, 0.005, 0.10, 12)`,
					storeID, modality, w.inicio, w.fim, w.debit,
				); err != nil {
					return fmt.Errorf("insert parameter set for %s: %w", seed.Name, err)
				}
			}
		}
	}

	log.Info().Int("stores", len(storeSeeds)).Msg("seed data inserted")
	return nil
}
