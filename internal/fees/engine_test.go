package fees

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagwall/gateway-settlement/internal/model"
	"github.com/pagwall/gateway-settlement/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testParameterSet() *model.ParameterSet {
	return &model.ParameterSet{
		ID:                      1,
		StoreID:                 10,
		PlanID:                  1,
		Modality:                model.ModalityWall,
		DebitDiscountRate:       dec("0.016"),
		CashDiscountRate:        dec("0.029"),
		InstallmentDiscountRate: dec("0.035"),
		TEFDiscountRate:         dec("0.012"),
		AnticipationRate:        dec("0.019"),
		TaxRate:                 dec("0.0925"),
		RebateRateSingle:        dec("0.003"),
		RebateRateInstallment:   dec("0.005"),
		MinFeeAmount:            dec("0.10"),
		MaxInstallments:         12,
	}
}

func testRecord(op model.OperationClass, installments int, gross, net string) *model.RawTransactionRecord {
	storeID := int64(10)
	return &model.RawTransactionRecord{
		ID:           77,
		AcquirerTxID: "PB-123",
		Acquirer:     model.GatewayPinbank,
		StoreID:      &storeID,
		OccurredAt:   time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC),
		GrossAmount:  dec(gross),
		NetAmount:    dec(net),
		Operation:    op,
		Installments: installments,
	}
}

func TestCompute(t *testing.T) {
	ps := testParameterSet()

	t.Run("happy: debit under Wall has no anticipation", func(t *testing.T) {
		rec := testRecord(model.OperationDebit, 1, "100.00", "97.00")

		entry, err := Compute(rec, 1, model.ModalityWall, ps)
		require.NoError(t, err)

		assert.True(t, entry.ClientDiscount.Equal(dec("1.6")), "client discount: %s", entry.ClientDiscount)
		assert.True(t, entry.AdjustedAmount.Equal(dec("98.4")), "adjusted: %s", entry.AdjustedAmount)
		assert.True(t, entry.AnticipationAmount.IsZero())
		assert.True(t, entry.TaxAmount.IsZero())
		assert.True(t, entry.RebateAmount.Equal(dec("0.2952")), "rebate: %s", entry.RebateAmount)
		assert.True(t, entry.NetToStore.Equal(dec("97.2952")), "net: %s", entry.NetToStore)
	})

	t.Run("happy: three-installment credit under Wall", func(t *testing.T) {
		rec := testRecord(model.OperationCredit, 3, "300.00", "285.00")

		entry, err := Compute(rec, 1, model.ModalityWall, ps)
		require.NoError(t, err)

		// discount 300*0.035=10.5; adjusted 289.5; horizon (3+1)/2=2;
		// anticipation 289.5*0.019*2=11.001; tax 11.001*0.0925.
		assert.True(t, entry.ClientDiscount.Equal(dec("10.5")))
		assert.True(t, entry.AdjustedAmount.Equal(dec("289.5")))
		assert.True(t, entry.AnticipationAmount.Equal(dec("11.001")), "anticipation: %s", entry.AnticipationAmount)
		assert.True(t, entry.TaxAmount.Equal(dec("1.0175925")), "tax: %s", entry.TaxAmount)
		assert.True(t, entry.AnticipationTotal.Equal(dec("12.0185925")))
		assert.True(t, entry.RebateAmount.Equal(dec("1.4475")))
		assert.True(t, entry.NetToStore.Equal(dec("274.4289075")), "net: %s", entry.NetToStore)
	})

	t.Run("happy: standard modality skips anticipation and rebate", func(t *testing.T) {
		rec := testRecord(model.OperationCredit, 3, "300.00", "285.00")

		entry, err := Compute(rec, 1, model.ModalityStandard, ps)
		require.NoError(t, err)

		assert.True(t, entry.AnticipationAmount.IsZero())
		assert.True(t, entry.TaxAmount.IsZero())
		assert.True(t, entry.RebateAmount.IsZero())
		assert.True(t, entry.NetToStore.Equal(dec("285.00")))
	})

	t.Run("happy: minimum fee floor applies to tiny amounts", func(t *testing.T) {
		rec := testRecord(model.OperationDebit, 1, "2.00", "1.90")

		entry, err := Compute(rec, 1, model.ModalityStandard, ps)
		require.NoError(t, err)

		// 2.00*0.016=0.032 < 0.10 floor
		assert.True(t, entry.ClientDiscount.Equal(dec("0.10")))
		assert.True(t, entry.AdjustedAmount.Equal(dec("1.90")))
	})

	t.Run("happy: identical inputs yield identical entries", func(t *testing.T) {
		rec := testRecord(model.OperationCredit, 6, "1234.56", "1170.00")

		first, err := Compute(rec, 1, model.ModalityWall, ps)
		require.NoError(t, err)
		second, err := Compute(rec, 1, model.ModalityWall, ps)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("bad: negative net routes to domain error", func(t *testing.T) {
		// Anticipation over 12 installments swamps the tiny reported net.
		rec := testRecord(model.OperationCredit, 12, "100.00", "5.00")

		_, err := Compute(rec, 1, model.ModalityWall, ps)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrComputationDomain)
	})

	t.Run("bad: non-positive gross", func(t *testing.T) {
		rec := testRecord(model.OperationDebit, 1, "0.00", "0.00")

		_, err := Compute(rec, 1, model.ModalityWall, ps)
		assert.ErrorIs(t, err, ErrComputationDomain)
	})

	t.Run("bad: installments above plan maximum", func(t *testing.T) {
		rec := testRecord(model.OperationCredit, 13, "100.00", "95.00")

		_, err := Compute(rec, 1, model.ModalityWall, ps)
		assert.ErrorIs(t, err, ErrComputationDomain)
	})

	t.Run("bad: unknown operation class", func(t *testing.T) {
		rec := testRecord(model.OperationClass("PIX"), 1, "100.00", "95.00")

		_, err := Compute(rec, 1, model.ModalityWall, ps)
		assert.ErrorIs(t, err, ErrComputationDomain)
	})
}

type fakeBilling struct {
	planID   int64
	modality model.Modality
}

func (f *fakeBilling) GetBilling(ctx context.Context, storeID int64) (int64, model.Modality, error) {
	return f.planID, f.modality, nil
}

type fakeResolver struct {
	ps  *model.ParameterSet
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, storeID, planID int64, modality model.Modality, ref time.Time) (*model.ParameterSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ps, nil
}

type fakeLedger struct {
	entries   []*model.ManagementLedgerEntry
	duplicate bool
}

func (f *fakeLedger) InsertComputed(ctx context.Context, entry *model.ManagementLedgerEntry) (bool, error) {
	if f.duplicate {
		return false, nil
	}
	f.entries = append(f.entries, entry)
	return true, nil
}

type fakeErrors struct {
	entries []*model.ErrorLedgerEntry
}

func (f *fakeErrors) Insert(ctx context.Context, entry *model.ErrorLedgerEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestEngine_Process(t *testing.T) {
	t.Run("happy: computed entry reaches the ledger", func(t *testing.T) {
		ledger := &fakeLedger{}
		errs := &fakeErrors{}
		engine := NewEngine(
			&fakeBilling{planID: 1, modality: model.ModalityWall},
			&fakeResolver{ps: testParameterSet()},
			ledger, errs)

		rec := testRecord(model.OperationDebit, 1, "100.00", "97.00")
		diverted, err := engine.Process(context.Background(), rec)
		require.NoError(t, err)
		assert.False(t, diverted)

		require.Len(t, ledger.entries, 1)
		assert.Empty(t, errs.entries)
		assert.Equal(t, rec.AcquirerTxID, ledger.entries[0].AcquirerTxID)
		require.NotNil(t, ledger.entries[0].SourceQueueID)
		assert.Equal(t, rec.ID, *ledger.entries[0].SourceQueueID)
	})

	t.Run("happy: missing parameters divert to error ledger without failing", func(t *testing.T) {
		ledger := &fakeLedger{}
		errs := &fakeErrors{}
		engine := NewEngine(
			&fakeBilling{planID: 1, modality: model.ModalityWall},
			&fakeResolver{err: repository.ErrParameterNotFound},
			ledger, errs)

		rec := testRecord(model.OperationDebit, 1, "100.00", "97.00")
		diverted, err := engine.Process(context.Background(), rec)
		require.NoError(t, err)
		assert.True(t, diverted, "a parameter miss must be reported as diverted")

		assert.Empty(t, ledger.entries)
		require.Len(t, errs.entries, 1)
		assert.Equal(t, "parameter_resolution", errs.entries[0].Stage)
		assert.Equal(t, rec.AcquirerTxID, errs.entries[0].AcquirerTxID)
	})

	t.Run("happy: domain error diverts with reason", func(t *testing.T) {
		ledger := &fakeLedger{}
		errs := &fakeErrors{}
		engine := NewEngine(
			&fakeBilling{planID: 1, modality: model.ModalityWall},
			&fakeResolver{ps: testParameterSet()},
			ledger, errs)

		rec := testRecord(model.OperationCredit, 12, "100.00", "5.00")
		diverted, err := engine.Process(context.Background(), rec)
		require.NoError(t, err)
		assert.True(t, diverted)

		assert.Empty(t, ledger.entries)
		require.Len(t, errs.entries, 1)
		assert.Equal(t, "fee_computation", errs.entries[0].Stage)
		assert.Contains(t, errs.entries[0].Reason, "negative")
	})

	t.Run("happy: already-processed record is a no-op", func(t *testing.T) {
		ledger := &fakeLedger{duplicate: true}
		errs := &fakeErrors{}
		engine := NewEngine(
			&fakeBilling{planID: 1, modality: model.ModalityWall},
			&fakeResolver{ps: testParameterSet()},
			ledger, errs)

		rec := testRecord(model.OperationDebit, 1, "100.00", "97.00")
		diverted, err := engine.Process(context.Background(), rec)
		require.NoError(t, err)
		assert.False(t, diverted)
		assert.Empty(t, errs.entries)
	})

	t.Run("bad: record without store is rejected", func(t *testing.T) {
		engine := NewEngine(
			&fakeBilling{planID: 1, modality: model.ModalityWall},
			&fakeResolver{ps: testParameterSet()},
			&fakeLedger{}, &fakeErrors{})

		rec := testRecord(model.OperationDebit, 1, "100.00", "97.00")
		rec.StoreID = nil
		_, err := engine.Process(context.Background(), rec)
		assert.Error(t, err)
	})
}
