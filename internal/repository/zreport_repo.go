package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
)

type ZReportRepository interface {
	// NextReportNumberTx allocates the next sequential report number. Uses a
	// PostgreSQL sequence: numbers burned by a rolled-back close are gaps,
	// never reused.
	NextReportNumberTx(ctx context.Context, tx *gorm.DB) (int64, error)
	CreateTx(ctx context.Context, tx *gorm.DB, z *model.ZReport) error
	FindBySession(ctx context.Context, sessionID uuid.UUID) (*model.ZReport, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ZReport, error)
	List(ctx context.Context, dateFrom, dateTo string, page, limit int) ([]model.ZReport, int64, error)
	// MarkPrinted flips the printed flag once; the report itself stays
	// immutable. Returns the updated report.
	MarkPrinted(ctx context.Context, id uuid.UUID, at time.Time) (*model.ZReport, error)
}

type zReportRepo struct{ db *gorm.DB }

func NewZReportRepository(db *gorm.DB) ZReportRepository { return &zReportRepo{db: db} }

func (r *zReportRepo) NextReportNumberTx(ctx context.Context, tx *gorm.DB) (int64, error) {
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('z_reports_report_number_seq')").Scan(&num).Error
	return num, err
}

func (r *zReportRepo) CreateTx(ctx context.Context, tx *gorm.DB, z *model.ZReport) error {
	return tx.WithContext(ctx).Create(z).Error
}

func (r *zReportRepo) FindBySession(ctx context.Context, sessionID uuid.UUID) (*model.ZReport, error) {
	var z model.ZReport
	err := r.db.WithContext(ctx).Where("cash_session_id = ?", sessionID).First(&z).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &z, nil
}

func (r *zReportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ZReport, error) {
	var z model.ZReport
	if err := r.db.WithContext(ctx).First(&z, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *zReportRepo) List(ctx context.Context, dateFrom, dateTo string, page, limit int) ([]model.ZReport, int64, error) {
	var reports []model.ZReport
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.ZReport{})
	if dateFrom != "" {
		q = q.Where("report_date >= ?", dateFrom)
	}
	if dateTo != "" {
		q = q.Where("report_date <= ?", dateTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("report_number DESC").
		Offset(offset).Limit(limit).
		Find(&reports).Error
	return reports, total, err
}

func (r *zReportRepo) MarkPrinted(ctx context.Context, id uuid.UUID, at time.Time) (*model.ZReport, error) {
	res := r.db.WithContext(ctx).Model(&model.ZReport{}).
		Where("id = ? AND printed = false", id).
		Updates(map[string]interface{}{"printed": true, "printed_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	return r.FindByID(ctx, id)
}
