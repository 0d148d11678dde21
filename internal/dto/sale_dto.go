package dto

import "github.com/shopspring/decimal"

// SaleCompletedRequest is posted by the sale flow when a sale completes.
// The ledger binds the sale to the operator/terminal's active session and
// appends the matching sale movement.
type SaleCompletedRequest struct {
	SaleID        string          `json:"sale_id"        validate:"required,uuid"`
	Total         decimal.Decimal `json:"total"          validate:"required,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card other"`
	TerminalID    *string         `json:"terminal_id"    validate:"omitempty,max=40"`
}

type SaleRecordedResponse struct {
	SessionID  string           `json:"session_id"`
	MovementID string           `json:"movement_id"`
	Movement   MovementResponse `json:"movement"`
}
