package dto

import "github.com/shopspring/decimal"

type ChargeRequest struct {
	StoreID      int64           `json:"store_id" binding:"required"`
	CardNumber   string          `json:"card_number" binding:"required"`
	CardHolder   string          `json:"card_holder" binding:"required"`
	ExpiryMonth  string          `json:"expiry_month" binding:"required,len=2"`
	ExpiryYear   string          `json:"expiry_year" binding:"required,len=2"`
	SecureCode   string          `json:"secure_code" binding:"required,min=3,max=4"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Installments int             `json:"installments" binding:"omitempty,min=1,max=24"`
}

type RefundRequest struct {
	StoreID   int64           `json:"store_id" binding:"required"`
	PaymentID string          `json:"payment_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

type RunJobRequest struct {
	Limit      int    `json:"limit" binding:"omitempty,min=1,max=10000"`
	WindowFrom string `json:"window_from" binding:"omitempty"`
	WindowTo   string `json:"window_to" binding:"omitempty"`
}
