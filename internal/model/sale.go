package model

import (
	"time"

	"github.com/google/uuid"
)

// Sale statuses relevant to the ledger.
const (
	SaleCompleted = "completed"
	SaleCancelled = "cancelled"
	SaleRefunded  = "refunded"
)

// Sale is the external collaborator record. The ledger engine only reads it —
// except for CashSessionID, which SalesLinkage stamps at completion time to
// bind the sale to the session that was active then.
type Sale struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Total         int64      `gorm:"not null"`
	PaymentMethod string     `gorm:"type:varchar(20);not null"`
	Status        string     `gorm:"type:varchar(20);not null"`
	CashSessionID *uuid.UUID `gorm:"type:uuid;index:ix_sales_session"`
	CreatedAt     time.Time
}
