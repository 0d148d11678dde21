package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	TerminalID     *string         `json:"terminal_id"     validate:"omitempty,max=40"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type PostMovementRequest struct {
	SessionID     string          `json:"session_id"     validate:"required,uuid"`
	Type          string          `json:"type"           validate:"required,oneof=in out"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card other"`
	Reason        string          `json:"reason"         validate:"required,min=3"`
}

type CloseSessionRequest struct {
	SessionID      string          `json:"session_id"      validate:"required,uuid"`
	CountedBalance decimal.Decimal `json:"counted_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionTotals struct {
	Sales decimal.Decimal `json:"sales"`
	Cash  decimal.Decimal `json:"cash"`
	Card  decimal.Decimal `json:"card"`
	Other decimal.Decimal `json:"other"`
	In    decimal.Decimal `json:"in"`
	Out   decimal.Decimal `json:"out"`
}

type SessionResponse struct {
	ID              string           `json:"id"`
	SessionNumber   string           `json:"session_number"`
	OperatorID      string           `json:"operator_id"`
	TerminalID      *string          `json:"terminal_id"`
	Status          string           `json:"status"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
	ClosingBalance  *decimal.Decimal `json:"closing_balance"`
	ExpectedBalance *decimal.Decimal `json:"expected_balance"`
	Difference      *decimal.Decimal `json:"difference"`
	Totals          SessionTotals    `json:"totals"`
	SalesCount      int              `json:"sales_count"`
	OpeningNotes    *string          `json:"opening_notes"`
	ClosingNotes    *string          `json:"closing_notes"`
	OpenedAt        string           `json:"opened_at"`
	ClosedAt        *string          `json:"closed_at"`
}

type MovementResponse struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *string         `json:"payment_method"`
	Reason        string          `json:"reason"`
	ReferenceID   *string         `json:"reference_id"`
	OperatorID    string          `json:"operator_id"`
	CreatedAt     string          `json:"created_at"`
}

type CloseSessionResponse struct {
	Session SessionResponse `json:"session"`
	Report  ZReportResponse `json:"report"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type SessionFilter struct {
	Status     string
	OperatorID string
	TerminalID string
	DateFrom   string
	DateTo     string
	Page       int
	Limit      int
}

// XReportResponse is the mid-shift snapshot of an open session. It is
// recomputed from the ledger on every request and never persisted.
type XReportResponse struct {
	SessionID       string          `json:"session_id"`
	SessionNumber   string          `json:"session_number"`
	GeneratedAt     string          `json:"generated_at"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Totals          SessionTotals   `json:"totals"`
	SalesCount      int             `json:"sales_count"`
}
