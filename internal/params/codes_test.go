package params

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagwall/gateway-settlement/internal/model"
)

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCodeName(t *testing.T) {
	t.Run("happy: known codes resolve names", func(t *testing.T) {
		cases := map[int]string{
			1:  "desconto_cliente_debito",
			5:  "taxa_antecipacao",
			10: "parcelas_maximas",
			35: "taxa_secundaria_debito",
			44: "repasse_terciario",
		}
		for code, want := range cases {
			name, ok := CodeName(code)
			require.True(t, ok, "code %d", code)
			assert.Equal(t, want, name)
		}
	})

	t.Run("bad: out-of-range codes", func(t *testing.T) {
		for _, code := range []int{0, 45, -1, 100} {
			_, ok := CodeName(code)
			assert.False(t, ok, "code %d", code)
		}
	})
}

func TestValueByCode(t *testing.T) {
	ps := &model.ParameterSet{
		DebitDiscountRate:       rate("0.016"),
		CashDiscountRate:        rate("0.029"),
		InstallmentDiscountRate: rate("0.035"),
		TEFDiscountRate:         rate("0.012"),
		AnticipationRate:        rate("0.019"),
		TaxRate:                 rate("0.0925"),
		RebateRateSingle:        rate("0.003"),
		RebateRateInstallment:   rate("0.005"),
		MinFeeAmount:            rate("0.10"),
		MaxInstallments:         12,
	}

	t.Run("happy: bound codes map to parameter fields", func(t *testing.T) {
		cases := map[int]decimal.Decimal{
			1:  ps.DebitDiscountRate,
			2:  ps.CashDiscountRate,
			3:  ps.InstallmentDiscountRate,
			4:  ps.TEFDiscountRate,
			5:  ps.AnticipationRate,
			6:  ps.TaxRate,
			7:  ps.RebateRateSingle,
			8:  ps.RebateRateInstallment,
			9:  ps.MinFeeAmount,
			10: decimal.NewFromInt(12),
		}
		for code, want := range cases {
			got, ok := ValueByCode(ps, code)
			require.True(t, ok, "code %d", code)
			assert.True(t, got.Equal(want), "code %d: got %s want %s", code, got, want)
		}
	})

	t.Run("happy: legacy-only codes have a name but no binding", func(t *testing.T) {
		for _, code := range []int{11, 23, 34, 40, 44} {
			_, named := CodeName(code)
			assert.True(t, named, "code %d", code)

			got, bound := ValueByCode(ps, code)
			assert.False(t, bound, "code %d", code)
			assert.True(t, got.IsZero())
		}
	})
}
