// Package params maps the legacy numeric parameter codes carried by acquirer
// reports and historical exports onto the named ParameterSet fields. The
// mapping is static configuration data; computation code never branches on a
// numeric code.
package params

import (
	"github.com/shopspring/decimal"

	"github.com/pagwall/gateway-settlement/internal/model"
)

// Legacy code tiers: 1–34 store-level, 35–40 secondary, 41–44 tertiary.
var codeNames = map[int]string{
	1:  "desconto_cliente_debito",
	2:  "desconto_cliente_avista",
	3:  "desconto_cliente_parcelado",
	4:  "desconto_cliente_tef",
	5:  "taxa_antecipacao",
	6:  "aliquota_imposto",
	7:  "rebate_avista",
	8:  "rebate_parcelado",
	9:  "tarifa_minima",
	10: "parcelas_maximas",
	11: "taxa_adquirente_debito",
	12: "taxa_adquirente_credito",
	13: "taxa_adquirente_tef",
	14: "desconto_bandeira_visa",
	15: "desconto_bandeira_master",
	16: "desconto_bandeira_elo",
	17: "desconto_bandeira_amex",
	18: "desconto_bandeira_hiper",
	19: "tarifa_transacao_fixa",
	20: "tarifa_cancelamento",
	21: "taxa_antecipacao_2_6",
	22: "taxa_antecipacao_7_12",
	23: "aliquota_iss",
	24: "aliquota_pis",
	25: "aliquota_cofins",
	26: "valor_repasse_liquido",
	27: "prazo_liquidacao_debito",
	28: "prazo_liquidacao_credito",
	29: "prazo_antecipacao",
	30: "percentual_split_canal",
	31: "percentual_split_loja",
	32: "tarifa_pos_mensal",
	33: "tarifa_pos_excedente",
	34: "franquia_transacoes",
	35: "taxa_secundaria_debito",
	36: "taxa_secundaria_credito",
	37: "taxa_secundaria_tef",
	38: "rebate_secundario",
	39: "imposto_secundario",
	40: "repasse_secundario",
	41: "taxa_terciaria",
	42: "rebate_terciario",
	43: "imposto_terciario",
	44: "repasse_terciario",
}

// Codes with a live binding into the computation engine's parameter fields.
// The remaining codes appear in legacy exports only and are reported by name.
var codeValues = map[int]func(*model.ParameterSet) decimal.Decimal{
	1: func(ps *model.ParameterSet) decimal.Decimal { return ps.DebitDiscountRate },
	2: func(ps *model.ParameterSet) decimal.Decimal { return ps.CashDiscountRate },
	3: func(ps *model.ParameterSet) decimal.Decimal { return ps.InstallmentDiscountRate },
	4: func(ps *model.ParameterSet) decimal.Decimal { return ps.TEFDiscountRate },
	5: func(ps *model.ParameterSet) decimal.Decimal { return ps.AnticipationRate },
	6: func(ps *model.ParameterSet) decimal.Decimal { return ps.TaxRate },
	7: func(ps *model.ParameterSet) decimal.Decimal { return ps.RebateRateSingle },
	8: func(ps *model.ParameterSet) decimal.Decimal { return ps.RebateRateInstallment },
	9: func(ps *model.ParameterSet) decimal.Decimal { return ps.MinFeeAmount },
	10: func(ps *model.ParameterSet) decimal.Decimal {
		return decimal.NewFromInt(int64(ps.MaxInstallments))
	},
}

// CodeName returns the legacy report name for a parameter code.
func CodeName(code int) (string, bool) {
	name, ok := codeNames[code]
	return name, ok
}

// ValueByCode resolves a legacy code against a parameter set. The second
// return is false for codes with no binding into the structured fields.
func ValueByCode(ps *model.ParameterSet, code int) (decimal.Decimal, bool) {
	fn, ok := codeValues[code]
	if !ok {
		return decimal.Zero, false
	}
	return fn(ps), true
}
