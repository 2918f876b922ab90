package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagwall/gateway-settlement/internal/ingestion"
	"github.com/pagwall/gateway-settlement/internal/model"
	"github.com/pagwall/gateway-settlement/internal/reconciliation"
)

type fakeCredentials struct{}

func (f *fakeCredentials) ListActiveCredentials(ctx context.Context, acquirer model.Gateway) ([]model.AcquirerCredential, error) {
	return []model.AcquirerCredential{
		{ID: 1, StoreID: 10, Acquirer: acquirer, Document: "12345678000190", Active: true},
		{ID: 2, StoreID: 11, Acquirer: acquirer, Document: "98765432000155", Active: true},
	}, nil
}

type fakeIngestClient struct {
	acquirer model.Gateway
	txns     map[string][]ingestion.AcquirerTransaction
	failDocs map[string]bool
}

func (f *fakeIngestClient) Acquirer() model.Gateway { return f.acquirer }

func (f *fakeIngestClient) FetchTransactions(ctx context.Context, accountRef string, w ingestion.Window) ([]ingestion.AcquirerTransaction, error) {
	if f.failDocs[accountRef] {
		return nil, errors.New("acquirer unavailable: connection timed out")
	}
	return f.txns[accountRef], nil
}

func (f *fakeIngestClient) FetchSettlements(ctx context.Context, accountRef string, w ingestion.Window) ([]ingestion.AcquirerSettlement, error) {
	if f.failDocs[accountRef] {
		return nil, errors.New("acquirer unavailable: connection timed out")
	}
	return nil, nil
}

type fakeIngestor struct {
	batches [][]ingestion.AcquirerTransaction
	divert  int
}

func (f *fakeIngestor) Ingest(ctx context.Context, records []ingestion.AcquirerTransaction, limit int) (*ingestion.Report, error) {
	f.batches = append(f.batches, records)
	return &ingestion.Report{Inserted: len(records), Diverted: f.divert}, nil
}

type fakeReconciler struct {
	rematched int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, records []ingestion.AcquirerSettlement) (*reconciliation.Report, error) {
	return &reconciliation.Report{Linked: len(records)}, nil
}

func (f *fakeReconciler) Rematch(ctx context.Context, limit int) (*reconciliation.Report, error) {
	f.rematched++
	return &reconciliation.Report{}, nil
}

func (f *fakeReconciler) DeduplicateLedger(ctx context.Context) (int64, error) {
	return 1, nil
}

type fakeRecords struct {
	pending []*model.RawTransactionRecord
	deleted int64
}

func (f *fakeRecords) ListUnprocessed(ctx context.Context, limit int) ([]*model.RawTransactionRecord, error) {
	if limit > 0 && len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeRecords) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.deleted++
	return 4, nil
}

type fakeFees struct {
	processed []int64
	divertIDs map[int64]bool
}

func (f *fakeFees) Process(ctx context.Context, rec *model.RawTransactionRecord) (bool, error) {
	f.processed = append(f.processed, rec.ID)
	return f.divertIDs[rec.ID], nil
}

func TestJobs_Extrato(t *testing.T) {
	window := ingestion.Window{From: time.Now().Add(-24 * time.Hour), To: time.Now()}

	t.Run("happy: one unreachable account degrades to partial failure", func(t *testing.T) {
		client := &fakeIngestClient{
			acquirer: model.GatewayPinbank,
			txns: map[string][]ingestion.AcquirerTransaction{
				"12345678000190": {{AcquirerTxID: "PB-1"}, {AcquirerTxID: "PB-2"}},
			},
			failDocs: map[string]bool{"98765432000155": true},
		}
		pipeline := &fakeIngestor{}
		jobs := &Jobs{
			Credentials: &fakeCredentials{},
			Clients:     []ingestion.IngestClient{client},
			Pipeline:    pipeline,
		}

		report, err := NewOrchestrator(NewMemoryLock()).Run(context.Background(), jobs.Extrato(window, 100))
		require.NoError(t, err)

		assert.Equal(t, StatusPartialFailure, report.Status)
		require.Len(t, report.Stages, 1)
		assert.Equal(t, 2, report.Stages[0].Processed)
		assert.Equal(t, 1, report.Stages[0].Errors)
		// The reachable account was still ingested.
		require.Len(t, pipeline.batches, 1)
	})

	t.Run("happy: ingestion diversions count as stage errors", func(t *testing.T) {
		client := &fakeIngestClient{
			acquirer: model.GatewayPinbank,
			txns: map[string][]ingestion.AcquirerTransaction{
				"12345678000190": {{AcquirerTxID: "PB-1"}},
			},
		}
		jobs := &Jobs{
			Credentials: &fakeCredentials{},
			Clients:     []ingestion.IngestClient{client},
			Pipeline:    &fakeIngestor{divert: 1},
		}

		report, err := NewOrchestrator(NewMemoryLock()).Run(context.Background(), jobs.Extrato(window, 100))
		require.NoError(t, err)

		assert.Equal(t, StatusPartialFailure, report.Status)
		assert.Equal(t, 2, report.Stages[0].Errors)
	})
}

func TestJobs_Gestao(t *testing.T) {
	t.Run("happy: pending records run through the fee processor up to the limit", func(t *testing.T) {
		records := &fakeRecords{pending: []*model.RawTransactionRecord{
			{ID: 1}, {ID: 2}, {ID: 3},
		}}
		fees := &fakeFees{}
		jobs := &Jobs{Records: records, Fees: fees}

		report, err := NewOrchestrator(NewMemoryLock()).Run(context.Background(), jobs.Gestao(2))
		require.NoError(t, err)

		assert.Equal(t, StatusSuccess, report.Status)
		require.Len(t, report.Stages, 1)
		assert.Equal(t, 2, report.Stages[0].Processed)
		assert.Equal(t, []int64{1, 2}, fees.processed)
	})

	t.Run("happy: a diverted record surfaces as partial failure", func(t *testing.T) {
		records := &fakeRecords{pending: []*model.RawTransactionRecord{{ID: 1}}}
		fees := &fakeFees{divertIDs: map[int64]bool{1: true}}
		jobs := &Jobs{Records: records, Fees: fees}

		report, err := NewOrchestrator(NewMemoryLock()).Run(context.Background(), jobs.Gestao(100))
		require.NoError(t, err)

		assert.Equal(t, StatusPartialFailure, report.Status)
		require.Len(t, report.Stages, 1)
		assert.Equal(t, 0, report.Stages[0].Processed)
		assert.Equal(t, 1, report.Stages[0].Errors)
	})
}

func TestJobs_Liquidacao(t *testing.T) {
	window := ingestion.Window{From: time.Now().Add(-24 * time.Hour), To: time.Now()}

	t.Run("happy: reconcile stages then rematch pending", func(t *testing.T) {
		client := &fakeIngestClient{acquirer: model.GatewayOwn}
		recon := &fakeReconciler{}
		jobs := &Jobs{
			Credentials: &fakeCredentials{},
			Clients:     []ingestion.IngestClient{client},
			Reconciler:  recon,
		}

		report, err := NewOrchestrator(NewMemoryLock()).Run(context.Background(), jobs.Liquidacao(window, 100))
		require.NoError(t, err)

		assert.Equal(t, StatusSuccess, report.Status)
		require.Len(t, report.Stages, 2)
		assert.Equal(t, "rematch-pending", report.Stages[1].Name)
		assert.Equal(t, 1, recon.rematched)
	})
}

func TestJobs_Ajustes(t *testing.T) {
	records := &fakeRecords{}
	jobs := &Jobs{
		Reconciler:      &fakeReconciler{},
		Records:         records,
		RetentionMinAge: 90 * 24 * time.Hour,
	}

	report, err := NewOrchestrator(NewMemoryLock()).Run(context.Background(), jobs.Ajustes())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	require.Len(t, report.Stages, 2)
	assert.Equal(t, "deduplicate-ledger", report.Stages[0].Name)
	assert.Equal(t, 1, report.Stages[0].Processed)
	assert.Equal(t, "retention-cleanup", report.Stages[1].Name)
	assert.Equal(t, 4, report.Stages[1].Processed)
	assert.EqualValues(t, 1, records.deleted)
}
