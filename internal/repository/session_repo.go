package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
)

type SessionRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// FindByIDForUpdateTx locks the session row for the duration of tx.
	// Every movement append and every close goes through this lock, which is
	// what serializes concurrent writers against the same session.
	FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	FindOpen(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*model.CashSession, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	CountOpenedOn(ctx context.Context, day time.Time) (int64, error)
	List(ctx context.Context, filter dto.SessionFilter) ([]model.CashSession, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpen(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*model.CashSession, error) {
	q := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, model.SessionOpen)
	if terminalID == nil {
		q = q.Where("terminal_id IS NULL")
	} else {
		q = q.Where("terminal_id = ?", *terminalID)
	}

	var s model.CashSession
	if err := q.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateTx(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return tx.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) CountOpenedOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("opened_at >= ? AND opened_at < ?", start, end).
		Count(&count).Error
	return count, err
}

func (r *sessionRepo) List(ctx context.Context, filter dto.SessionFilter) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.CashSession{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OperatorID != "" {
		q = q.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.TerminalID != "" {
		q = q.Where("terminal_id = ?", filter.TerminalID)
	}
	if filter.DateFrom != "" {
		q = q.Where("opened_at >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("opened_at <= ?", filter.DateTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("opened_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sessions).Error

	return sessions, total, err
}
