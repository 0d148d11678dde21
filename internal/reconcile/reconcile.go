// Package reconcile derives the expected drawer balance and per-method/
// per-type totals from a session's opening balance and its movement list.
// It is a pure computation: no I/O, no clock, deterministic for a given
// input, so a close can be audited later by replaying the same ledger.
package reconcile

import (
	"fmt"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
)

// Result is the outcome of reconciling one session. All amounts in cents.
//
// ExpectedBalance counts only what physically passes through the drawer:
// opening balance, cash-equivalent sales and manual ins, minus manual outs.
// Card/other sale totals are tracked but never feed the drawer expectation —
// that distinction is the whole point of the reconciliation.
type Result struct {
	ExpectedBalance int64

	TotalSales int64
	TotalCash  int64
	TotalCard  int64
	TotalOther int64
	TotalIn    int64
	TotalOut   int64
	SalesCount int
}

// Reconcile computes the Result for openingBalance plus movements, in ledger
// order. It fails with ErrReconciliation when the movement data is corrupted
// (unknown type, non-positive amounts, negative drawer expectation).
func Reconcile(openingBalance int64, movements []model.CashMovement) (Result, error) {
	if openingBalance < 0 {
		return Result{}, fmt.Errorf("%w: negative opening balance %d", apperrors.ErrReconciliation, openingBalance)
	}

	r := Result{ExpectedBalance: openingBalance}

	for _, m := range movements {
		switch m.Type {
		case model.MovementOpening, model.MovementClosing:
			// Literal counted balances, recorded for ledger symmetry only.
			if m.Amount < 0 {
				return Result{}, fmt.Errorf("%w: %s movement with negative amount %d", apperrors.ErrReconciliation, m.Type, m.Amount)
			}
		case model.MovementSale:
			if m.Amount <= 0 {
				return Result{}, fmt.Errorf("%w: sale movement with non-positive amount %d", apperrors.ErrReconciliation, m.Amount)
			}
			r.TotalSales += m.Amount
			r.SalesCount++
			switch method(m) {
			case model.MethodCash:
				r.TotalCash += m.Amount
				r.ExpectedBalance += m.Amount
			case model.MethodCard:
				r.TotalCard += m.Amount
			default:
				r.TotalOther += m.Amount
			}
		case model.MovementIn:
			if m.Amount <= 0 {
				return Result{}, fmt.Errorf("%w: in movement with non-positive amount %d", apperrors.ErrReconciliation, m.Amount)
			}
			r.TotalIn += m.Amount
			r.ExpectedBalance += m.Amount
		case model.MovementOut:
			if m.Amount <= 0 {
				return Result{}, fmt.Errorf("%w: out movement with non-positive amount %d", apperrors.ErrReconciliation, m.Amount)
			}
			r.TotalOut += m.Amount
			r.ExpectedBalance -= m.Amount
		default:
			return Result{}, fmt.Errorf("%w: unknown movement type %q", apperrors.ErrReconciliation, m.Type)
		}
	}

	if r.ExpectedBalance < 0 {
		return Result{}, fmt.Errorf("%w: expected balance %d is negative", apperrors.ErrReconciliation, r.ExpectedBalance)
	}
	return r, nil
}

func method(m model.CashMovement) string {
	if m.PaymentMethod == nil {
		return model.MethodOther
	}
	return *m.PaymentMethod
}
