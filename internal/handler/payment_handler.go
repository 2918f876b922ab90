package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagwall/gateway-settlement/internal/dto"
	"github.com/pagwall/gateway-settlement/internal/gateway"
)

// PaymentHandler is the live payment path. It only routes; nothing here
// writes to the ledger.
type PaymentHandler struct {
	router *gateway.Router
}

func NewPaymentHandler(router *gateway.Router) *PaymentHandler {
	return &PaymentHandler{router: router}
}

func (h *PaymentHandler) Charge(c *gin.Context) {
	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed: " + err.Error()})
		return
	}

	installments := req.Installments
	if installments == 0 {
		installments = 1
	}

	result := h.router.Charge(c.Request.Context(), &gateway.ChargeRequest{
		StoreID: req.StoreID,
		Card: gateway.CardData{
			Number:     req.CardNumber,
			Holder:     req.CardHolder,
			ExpiryMM:   req.ExpiryMonth,
			ExpiryYY:   req.ExpiryYear,
			SecureCode: req.SecureCode,
		},
		Amount:       req.Amount,
		Installments: installments,
	})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed: " + err.Error()})
		return
	}

	result := h.router.Refund(c.Request.Context(), req.StoreID, req.PaymentID, req.Amount)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
