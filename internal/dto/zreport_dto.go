package dto

import "github.com/shopspring/decimal"

type ZReportResponse struct {
	ID              string          `json:"id"`
	ReportNumber    int64           `json:"report_number"`
	SessionID       string          `json:"session_id"`
	ReportDate      string          `json:"report_date"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	ClosingBalance  decimal.Decimal `json:"closing_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Totals          SessionTotals   `json:"totals"`
	SalesCount      int             `json:"sales_count"`
	CancelledCount  int             `json:"cancelled_count"`
	RefundedCount   int             `json:"refunded_count"`
	GeneratedBy     string          `json:"generated_by"`
	Printed         bool            `json:"printed"`
	PrintedAt       *string         `json:"printed_at"`
}

type ZReportListResponse struct {
	Data  []ZReportResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
