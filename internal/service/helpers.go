package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/money"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
)

const timeLayout = "2006-01-02T15:04:05Z"

// maxTxRetries bounds automatic retries of transient transaction conflicts
// before surfacing ErrConcurrencyConflict to the caller.
const maxTxRetries = 3

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode with in-memory repos).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// runTxRetry is runTx plus bounded retry on serialization conflicts. Domain
// errors pass through untouched — retrying a stale state check could
// double-open or double-close.
func runTxRetry(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil || !repository.IsSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", apperrors.ErrConcurrencyConflict, err)
}

// applyMovement folds one appended movement into the session's running
// aggregates. Must run in the same transaction as the ledger insert.
func applyMovement(s *model.CashSession, m *model.CashMovement) {
	switch m.Type {
	case model.MovementSale:
		s.TotalSales += m.Amount
		s.SalesCount++
		switch movementMethod(m) {
		case model.MethodCash:
			s.TotalCash += m.Amount
		case model.MethodCard:
			s.TotalCard += m.Amount
		default:
			s.TotalOther += m.Amount
		}
	case model.MovementIn:
		s.TotalIn += m.Amount
	case model.MovementOut:
		s.TotalOut += m.Amount
	}
	// opening/closing record counted balances, not aggregate changes.
}

func movementMethod(m *model.CashMovement) string {
	if m.PaymentMethod == nil {
		return model.MethodOther
	}
	return *m.PaymentMethod
}

// ─── DTO mapping ─────────────────────────────────────────────────────────────

func toSessionResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:             s.ID.String(),
		SessionNumber:  s.SessionNumber,
		OperatorID:     s.OperatorID.String(),
		TerminalID:     s.TerminalID,
		Status:         s.Status,
		OpeningBalance: money.FromCents(s.OpeningBalance),
		Totals: dto.SessionTotals{
			Sales: money.FromCents(s.TotalSales),
			Cash:  money.FromCents(s.TotalCash),
			Card:  money.FromCents(s.TotalCard),
			Other: money.FromCents(s.TotalOther),
			In:    money.FromCents(s.TotalIn),
			Out:   money.FromCents(s.TotalOut),
		},
		SalesCount:   s.SalesCount,
		OpeningNotes: s.OpeningNotes,
		ClosingNotes: s.ClosingNotes,
		OpenedAt:     s.OpenedAt.UTC().Format(timeLayout),
	}
	if s.ClosingBalance != nil {
		d := money.FromCents(*s.ClosingBalance)
		resp.ClosingBalance = &d
	}
	if s.ExpectedBalance != nil {
		d := money.FromCents(*s.ExpectedBalance)
		resp.ExpectedBalance = &d
	}
	if s.Difference != nil {
		d := money.FromCents(*s.Difference)
		resp.Difference = &d
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.UTC().Format(timeLayout)
		resp.ClosedAt = &t
	}
	return resp
}

func toMovementResponse(m *model.CashMovement) *dto.MovementResponse {
	resp := &dto.MovementResponse{
		ID:            m.ID.String(),
		SessionID:     m.CashSessionID.String(),
		Type:          m.Type,
		Amount:        money.FromCents(m.Amount),
		PaymentMethod: m.PaymentMethod,
		Reason:        m.Reason,
		OperatorID:    m.OperatorID.String(),
		CreatedAt:     m.CreatedAt.UTC().Format(timeLayout),
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

func toZReportResponse(z *model.ZReport) *dto.ZReportResponse {
	resp := &dto.ZReportResponse{
		ID:              z.ID.String(),
		ReportNumber:    z.ReportNumber,
		SessionID:       z.CashSessionID.String(),
		ReportDate:      z.ReportDate.Format("2006-01-02"),
		OpeningBalance:  money.FromCents(z.OpeningBalance),
		ClosingBalance:  money.FromCents(z.ClosingBalance),
		ExpectedBalance: money.FromCents(z.ExpectedBalance),
		Difference:      money.FromCents(z.Difference),
		Totals: dto.SessionTotals{
			Sales: money.FromCents(z.TotalSales),
			Cash:  money.FromCents(z.TotalCash),
			Card:  money.FromCents(z.TotalCard),
			Other: money.FromCents(z.TotalOther),
			In:    money.FromCents(z.TotalIn),
			Out:   money.FromCents(z.TotalOut),
		},
		SalesCount:     z.SalesCount,
		CancelledCount: z.CancelledCount,
		RefundedCount:  z.RefundedCount,
		GeneratedBy:    z.GeneratedBy.String(),
		Printed:        z.Printed,
	}
	if z.PrintedAt != nil {
		t := z.PrintedAt.UTC().Format(timeLayout)
		resp.PrintedAt = &t
	}
	return resp
}
