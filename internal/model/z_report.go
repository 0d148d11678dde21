package model

import (
	"time"

	"github.com/google/uuid"
)

// ZReport is the immutable end-of-shift audit snapshot, one per closed
// session. ReportNumber comes from a database sequence: monotonic, never
// reused, gaps allowed (a rolled-back close burns a number), duplicates not.
type ZReport struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportNumber  int64     `gorm:"not null;uniqueIndex:ux_z_reports_report_number"`
	CashSessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_z_reports_session"`
	ReportDate    time.Time `gorm:"type:date;not null"`

	OpeningBalance  int64 `gorm:"not null"`
	ClosingBalance  int64 `gorm:"not null"`
	ExpectedBalance int64 `gorm:"not null"`
	Difference      int64 `gorm:"not null"`

	TotalSales int64 `gorm:"not null"`
	TotalCash  int64 `gorm:"not null"`
	TotalCard  int64 `gorm:"not null"`
	TotalOther int64 `gorm:"not null"`
	TotalIn    int64 `gorm:"not null"`
	TotalOut   int64 `gorm:"not null"`

	SalesCount     int `gorm:"not null"`
	CancelledCount int `gorm:"not null;default:0"`
	RefundedCount  int `gorm:"not null;default:0"`

	GeneratedBy uuid.UUID `gorm:"type:uuid;not null"`
	Printed     bool      `gorm:"not null;default:false"`
	PrintedAt   *time.Time
	CreatedAt   time.Time
}
