package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types. Amount is always the positive magnitude; direction is
// implied by the type, never by the numeric sign.
const (
	MovementOpening = "opening"
	MovementClosing = "closing"
	MovementIn      = "in"
	MovementOut     = "out"
	MovementSale    = "sale"
)

// Payment methods recognized by the reconciliation engine. Anything else is
// bucketed into "other".
const (
	MethodCash  = "cash"
	MethodCard  = "card"
	MethodOther = "other"
)

// CashMovement is one immutable event in a session's ledger. Movements are
// NEVER updated or deleted — corrections are new offsetting movements.
type CashMovement struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Seq is assigned by the database (BIGSERIAL) and is the insertion-order
	// key of the ledger; created_at alone cannot break same-microsecond ties.
	Seq           int64     `gorm:"->"`
	CashSessionID uuid.UUID `gorm:"type:uuid;not null;index:ix_cash_movements_session"`
	Type          string    `gorm:"type:varchar(20);not null"`
	// Amount in cents; > 0 except that opening/closing record the literal
	// counted balance, which may be zero.
	Amount        int64   `gorm:"not null"`
	PaymentMethod *string `gorm:"type:varchar(20)"`
	// Reason is required free text for manual in/out movements.
	Reason string `gorm:"type:text"`
	// ReferenceID points at the originating sale, when there is one.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	OperatorID  uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
}
