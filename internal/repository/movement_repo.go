package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
)

// MovementRepository is the append-only ledger store. There is deliberately
// no update or delete: corrections are new offsetting movements, and the
// interface makes that a compile-time guarantee.
type MovementRepository interface {
	AppendTx(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	// ListBySession returns the session's ledger in insertion order, stable
	// across calls so a reconciliation can be replayed byte for byte.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	ListBySessionTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) AppendTx(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return tx.WithContext(ctx).Create(m).Error
}

func (r *movementRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return listMovements(r.db.WithContext(ctx), sessionID)
}

func (r *movementRepo) ListBySessionTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return listMovements(tx.WithContext(ctx), sessionID)
}

func listMovements(db *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	// seq is the serial insertion-order key; created_at can collide within a
	// microsecond and a UUID id does not sort by time.
	err := db.Where("cash_session_id = ?", sessionID).
		Order("seq ASC").
		Find(&movs).Error
	return movs, err
}
