package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
)

// SaleRepository is the ledger's narrow view of the external sales table:
// it may bind a sale to a session and count statuses for the Z-report,
// nothing else.
type SaleRepository interface {
	BindToSessionTx(ctx context.Context, tx *gorm.DB, saleID, sessionID uuid.UUID) error
	CountBySessionAndStatusTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status string) (int64, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) BindToSessionTx(ctx context.Context, tx *gorm.DB, saleID, sessionID uuid.UUID) error {
	return tx.WithContext(ctx).Model(&model.Sale{}).
		Where("id = ?", saleID).
		Update("cash_session_id", sessionID).Error
}

func (r *saleRepo) CountBySessionAndStatusTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, status string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.Sale{}).
		Where("cash_session_id = ? AND status = ?", sessionID, status).
		Count(&count).Error
	return count, err
}
