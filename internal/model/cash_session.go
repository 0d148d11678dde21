package model

import (
	"time"

	"github.com/google/uuid"
)

// Session states. Closed is terminal; suspended can be resumed to open.
const (
	SessionOpen      = "open"
	SessionClosed    = "closed"
	SessionSuspended = "suspended"
)

// CashSession represents one till-drawer shift bounded by open/close.
// All monetary fields are integer cents. The running aggregates are
// maintained in the same transaction as every movement insert and are
// always non-negative; direction lives in the movement type.
type CashSession struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionNumber string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_cash_sessions_session_number"`
	OperatorID    uuid.UUID `gorm:"type:uuid;not null"`
	TerminalID    *string   `gorm:"type:varchar(40)"`
	Status        string    `gorm:"type:varchar(20);not null;default:'open';index:ix_cash_sessions_status"`

	OpeningBalance int64 `gorm:"not null"`
	// ClosingBalance, ExpectedBalance and Difference are set only at close.
	ClosingBalance  *int64
	ExpectedBalance *int64
	Difference      *int64

	TotalSales int64 `gorm:"not null;default:0"`
	TotalCash  int64 `gorm:"not null;default:0"`
	TotalCard  int64 `gorm:"not null;default:0"`
	TotalOther int64 `gorm:"not null;default:0"`
	TotalIn    int64 `gorm:"not null;default:0"`
	TotalOut   int64 `gorm:"not null;default:0"`
	SalesCount int   `gorm:"not null;default:0"`

	OpeningNotes *string
	ClosingNotes *string

	OpenedAt time.Time `gorm:"not null"`
	ClosedAt *time.Time

	Movements []CashMovement `gorm:"foreignKey:CashSessionID"`
}

// IsTerminal reports whether no further transition may leave the state.
func (s *CashSession) IsTerminal() bool { return s.Status == SessionClosed }
