// Command carga runs the batch jobs from cron or an operator shell.
//
// Exit codes: 0 success, 1 failure, 2 partial failure, 3 already running.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pagwall/gateway-settlement/internal/batch"
	"github.com/pagwall/gateway-settlement/internal/config"
	"github.com/pagwall/gateway-settlement/internal/database"
	"github.com/pagwall/gateway-settlement/internal/fees"
	"github.com/pagwall/gateway-settlement/internal/ingestion"
	"github.com/pagwall/gateway-settlement/internal/reconciliation"
	"github.com/pagwall/gateway-settlement/internal/repository"
)

const (
	exitSuccess        = 0
	exitFailed         = 1
	exitPartialFailure = 2
	exitAlreadyRunning = 3
)

func main() {
	var (
		jobName    = flag.String("job", "", "job to run: extrato, gestao, liquidacao, ajustes or all")
		limite     = flag.Int("limite", 0, "record cap per run (0 = configured default)")
		janelaDias = flag.Int("janela", 1, "extract window in days, ending now")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if *jobName == "" {
		fmt.Fprintln(os.Stderr, "usage: carga -job <extrato|gestao|liquidacao|ajustes|all> [-limite N] [-janela D]")
		os.Exit(exitFailed)
	}

	cfg := config.Load()
	limit := *limite
	if limit == 0 {
		limit = cfg.BatchDefaultLimit
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		os.Exit(exitFailed)
	}
	defer pool.Close()

	storeRepo := repository.NewStoreRepository(pool)
	rawRepo := repository.NewRawTransactionRepository(pool)
	settlementRepo := repository.NewSettlementRepository(pool)
	paramRepo := repository.NewParameterRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	errorRepo := repository.NewErrorLedgerRepository(pool)

	feeEngine := fees.NewEngine(storeRepo, paramRepo, ledgerRepo, errorRepo)

	jobs := &batch.Jobs{
		Credentials: storeRepo,
		Clients: []ingestion.IngestClient{
			ingestion.NewPinbankIngestClient(cfg.PinbankBaseURL, cfg.PinbankAPIKey, cfg.AcquirerTimeout),
			ingestion.NewOwnIngestClient(cfg.OwnBaseURL, cfg.OwnAPIKey, cfg.AcquirerTimeout),
		},
		Pipeline:        ingestion.NewPipeline(rawRepo, storeRepo, feeEngine),
		Records:         rawRepo,
		Fees:            feeEngine,
		Reconciler:      reconciliation.NewEngine(settlementRepo, ledgerRepo),
		RetentionMinAge: cfg.RetentionMinAge,
	}
	orchestrator := batch.NewOrchestrator(batch.NewAdvisoryLock(pool))

	now := time.Now().UTC()
	window := ingestion.Window{From: now.AddDate(0, 0, -*janelaDias), To: now}

	specs, err := specsFor(*jobName, jobs, window, limit)
	if err != nil {
		log.Error().Err(err).Msg("invalid job")
		os.Exit(exitFailed)
	}

	os.Exit(runAll(ctx, orchestrator, specs))
}

func specsFor(jobName string, jobs *batch.Jobs, window ingestion.Window, limit int) ([]batch.JobSpec, error) {
	switch jobName {
	case batch.JobExtrato:
		return []batch.JobSpec{jobs.Extrato(window, limit)}, nil
	case batch.JobGestao:
		return []batch.JobSpec{jobs.Gestao(limit)}, nil
	case batch.JobLiquidacao:
		return []batch.JobSpec{jobs.Liquidacao(window, limit)}, nil
	case batch.JobAjustes:
		return []batch.JobSpec{jobs.Ajustes()}, nil
	case "all":
		return []batch.JobSpec{
			jobs.Extrato(window, limit),
			jobs.Gestao(limit),
			jobs.Liquidacao(window, limit),
			jobs.Ajustes(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown job %q", jobName)
	}
}

// runAll executes the specs concurrently; each job type holds its own lock so
// independent jobs may overlap. The worst per-job outcome becomes the exit
// code.
func runAll(ctx context.Context, orch *batch.Orchestrator, specs []batch.JobSpec) int {
	var mu sync.Mutex
	exit := exitSuccess

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			report, err := orch.Run(gctx, spec)
			if err != nil {
				log.Error().Err(err).Str("job", spec.Type).Msg("job run failed")
				mu.Lock()
				exit = exitFailed
				mu.Unlock()
				return nil
			}

			log.Info().
				Str("job", report.Job).
				Str("run_id", report.RunID).
				Str("status", string(report.Status)).
				Msg("job finished")

			mu.Lock()
			defer mu.Unlock()
			switch report.Status {
			case batch.StatusFailed:
				exit = exitFailed
			case batch.StatusPartialFailure:
				if exit == exitSuccess || exit == exitAlreadyRunning {
					exit = exitPartialFailure
				}
			case batch.StatusAlreadyRunning:
				if exit == exitSuccess {
					exit = exitAlreadyRunning
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return exit
}
