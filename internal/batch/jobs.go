package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagwall/gateway-settlement/internal/ingestion"
	"github.com/pagwall/gateway-settlement/internal/model"
	"github.com/pagwall/gateway-settlement/internal/reconciliation"
)

// Job type names. Each owns its lock; different types run concurrently.
const (
	JobExtrato    = "extrato"
	JobGestao     = "gestao"
	JobLiquidacao = "liquidacao"
	JobAjustes    = "ajustes"
)

type CredentialLister interface {
	ListActiveCredentials(ctx context.Context, acquirer model.Gateway) ([]model.AcquirerCredential, error)
}

type TransactionIngestor interface {
	Ingest(ctx context.Context, records []ingestion.AcquirerTransaction, limit int) (*ingestion.Report, error)
}

type SettlementReconciler interface {
	Reconcile(ctx context.Context, records []ingestion.AcquirerSettlement) (*reconciliation.Report, error)
	Rematch(ctx context.Context, limit int) (*reconciliation.Report, error)
	DeduplicateLedger(ctx context.Context) (int64, error)
}

type PendingRecordSource interface {
	ListUnprocessed(ctx context.Context, limit int) ([]*model.RawTransactionRecord, error)
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type FeeProcessor interface {
	Process(ctx context.Context, rec *model.RawTransactionRecord) (diverted bool, err error)
}

// Jobs builds the JobSpecs the orchestrator runs. All collaborators are
// injected; nothing here touches the database directly.
type Jobs struct {
	Credentials     CredentialLister
	Clients         []ingestion.IngestClient
	Pipeline        TransactionIngestor
	Records         PendingRecordSource
	Fees            FeeProcessor
	Reconciler      SettlementReconciler
	RetentionMinAge time.Duration
}

// Extrato fetches transaction extracts from every acquirer account and runs
// them through the ingestion pipeline. An unreachable acquirer account counts
// as a stage error and the remaining accounts still run; the job reports
// partial success and is safe to re-run.
func (j *Jobs) Extrato(w ingestion.Window, limit int) JobSpec {
	stages := make([]Stage, 0, len(j.Clients))
	for _, client := range j.Clients {
		client := client
		stages = append(stages, Stage{
			Name: fmt.Sprintf("ingest-%s", client.Acquirer()),
			Run: func(ctx context.Context) (StageResult, error) {
				return j.ingestAcquirer(ctx, client, w, limit)
			},
		})
	}
	return JobSpec{Type: JobExtrato, Stages: stages}
}

func (j *Jobs) ingestAcquirer(ctx context.Context, client ingestion.IngestClient, w ingestion.Window, limit int) (StageResult, error) {
	creds, err := j.Credentials.ListActiveCredentials(ctx, client.Acquirer())
	if err != nil {
		return StageResult{}, err
	}

	var result StageResult
	for _, cred := range creds {
		records, err := client.FetchTransactions(ctx, cred.Document, w)
		if err != nil {
			log.Warn().Err(err).
				Str("acquirer", string(client.Acquirer())).
				Str("document", cred.Document).
				Msg("extract fetch failed, skipping account")
			result.Errors++
			continue
		}

		report, err := j.Pipeline.Ingest(ctx, records, limit)
		if err != nil {
			return result, err
		}
		result.Processed += report.Inserted + report.SkippedDuplicate
		result.Errors += report.Failed + report.Diverted
	}
	return result, nil
}

// Gestao recomputes pending raw records into the management ledger. Used both
// as the nightly catch-up and after parameter corrections.
func (j *Jobs) Gestao(limit int) JobSpec {
	return JobSpec{
		Type: JobGestao,
		Stages: []Stage{{
			Name: "fee-computation",
			Run: func(ctx context.Context) (StageResult, error) {
				records, err := j.Records.ListUnprocessed(ctx, limit)
				if err != nil {
					return StageResult{}, err
				}
				var result StageResult
				for _, rec := range records {
					diverted, err := j.Fees.Process(ctx, rec)
					if err != nil {
						return result, err
					}
					if diverted {
						result.Errors++
						continue
					}
					result.Processed++
				}
				return result, nil
			},
		}},
	}
}

// Liquidacao fetches settlement feeds, reconciles them against the ledger and
// retries previously unlinked settlements.
func (j *Jobs) Liquidacao(w ingestion.Window, limit int) JobSpec {
	stages := make([]Stage, 0, len(j.Clients)+1)
	for _, client := range j.Clients {
		client := client
		stages = append(stages, Stage{
			Name: fmt.Sprintf("reconcile-%s", client.Acquirer()),
			Run: func(ctx context.Context) (StageResult, error) {
				return j.reconcileAcquirer(ctx, client, w)
			},
		})
	}
	stages = append(stages, Stage{
		Name: "rematch-pending",
		Run: func(ctx context.Context) (StageResult, error) {
			report, err := j.Reconciler.Rematch(ctx, limit)
			if err != nil {
				return StageResult{}, err
			}
			return StageResult{Processed: report.Linked + report.AlreadyProcessed, Errors: report.Failed}, nil
		},
	})
	return JobSpec{Type: JobLiquidacao, Stages: stages}
}

func (j *Jobs) reconcileAcquirer(ctx context.Context, client ingestion.IngestClient, w ingestion.Window) (StageResult, error) {
	creds, err := j.Credentials.ListActiveCredentials(ctx, client.Acquirer())
	if err != nil {
		return StageResult{}, err
	}

	var result StageResult
	for _, cred := range creds {
		records, err := client.FetchSettlements(ctx, cred.Document, w)
		if err != nil {
			log.Warn().Err(err).
				Str("acquirer", string(client.Acquirer())).
				Str("document", cred.Document).
				Msg("settlement fetch failed, skipping account")
			result.Errors++
			continue
		}

		report, err := j.Reconciler.Reconcile(ctx, records)
		if err != nil {
			return result, err
		}
		result.Processed += report.Linked + report.Unlinked + report.AlreadyProcessed
		result.Errors += report.Failed
	}
	return result, nil
}

// Ajustes runs the maintenance passes: manual-entry deduplication and
// retention cleanup of old processed raw records.
func (j *Jobs) Ajustes() JobSpec {
	return JobSpec{
		Type: JobAjustes,
		Stages: []Stage{
			{
				Name: "deduplicate-ledger",
				Run: func(ctx context.Context) (StageResult, error) {
					deleted, err := j.Reconciler.DeduplicateLedger(ctx)
					if err != nil {
						return StageResult{}, err
					}
					return StageResult{Processed: int(deleted)}, nil
				},
			},
			{
				Name: "retention-cleanup",
				Run: func(ctx context.Context) (StageResult, error) {
					cutoff := time.Now().UTC().Add(-j.RetentionMinAge)
					deleted, err := j.Records.DeleteProcessedBefore(ctx, cutoff)
					if err != nil {
						return StageResult{}, err
					}
					return StageResult{Processed: int(deleted)}, nil
				},
			},
		},
	}
}
