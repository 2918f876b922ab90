package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagwall/gateway-settlement/internal/dto"
	"github.com/pagwall/gateway-settlement/internal/fees"
	"github.com/pagwall/gateway-settlement/internal/params"
)

// ParameterHandler exposes the parameter set effective for a store at a point
// in time, rendered under the legacy numeric codes operators still use in
// support tooling and historical exports.
type ParameterHandler struct {
	billing  fees.StoreBillingReader
	resolver fees.ParameterResolver
}

func NewParameterHandler(billing fees.StoreBillingReader, resolver fees.ParameterResolver) *ParameterHandler {
	return &ParameterHandler{billing: billing, resolver: resolver}
}

type legacyParameter struct {
	Code  int     `json:"code"`
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

func (h *ParameterHandler) List(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid store id"})
		return
	}

	at := time.Now().UTC()
	if v := c.Query("at"); v != "" {
		if at, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid at timestamp"})
			return
		}
	}

	planID, modality, err := h.billing.GetBilling(c.Request.Context(), storeID)
	if err != nil {
		c.Error(err)
		return
	}

	ps, err := h.resolver.Resolve(c.Request.Context(), storeID, planID, modality, at)
	if err != nil {
		c.Error(err)
		return
	}

	// Codes are contiguous from 1; the first gap ends the table.
	out := make([]legacyParameter, 0, 44)
	for code := 1; ; code++ {
		name, ok := params.CodeName(code)
		if !ok {
			break
		}
		p := legacyParameter{Code: code, Name: name}
		if v, bound := params.ValueByCode(ps, code); bound {
			s := v.String()
			p.Value = &s
		}
		out = append(out, p)
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id":        storeID,
		"plan_id":         planID,
		"modality":        modality,
		"vigencia_inicio": ps.VigenciaInicio,
		"vigencia_fim":    ps.VigenciaFim,
		"parameters":      out,
	})
}
