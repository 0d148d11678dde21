package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/reconcile"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
)

// ZReportService owns the immutable end-of-session fiscal summary. Reports
// are generated exactly once per session, inside the close transaction, and
// are never modified afterwards except for the printed flag.
type ZReportService interface {
	GenerateTx(ctx context.Context, tx *gorm.DB, sesion *model.CashSession, rec reconcile.Result, generatedBy uuid.UUID) (*model.ZReport, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ZReportResponse, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*dto.ZReportResponse, error)
	List(ctx context.Context, dateFrom, dateTo *time.Time, page, limit int) (*dto.ZReportListResponse, error)
	MarkPrinted(ctx context.Context, id uuid.UUID) (*dto.ZReportResponse, error)
}

type zReportService struct {
	zreports repository.ZReportRepository
	sales    repository.SaleRepository
}

func NewZReportService(zreports repository.ZReportRepository, sales repository.SaleRepository) ZReportService {
	return &zReportService{zreports: zreports, sales: sales}
}

// GenerateTx builds and persists the Z-report for a session being closed.
// Runs inside the caller's close transaction: a failure here rolls the whole
// close back, so a closed session always has its report.
func (s *zReportService) GenerateTx(ctx context.Context, tx *gorm.DB, sesion *model.CashSession, rec reconcile.Result, generatedBy uuid.UUID) (*model.ZReport, error) {
	number, err := s.zreports.NextReportNumberTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: report number allocation: %v", apperrors.ErrReportGeneration, err)
	}

	cancelled, err := s.sales.CountBySessionAndStatusTx(ctx, tx, sesion.ID, model.SaleCancelled)
	if err != nil {
		return nil, fmt.Errorf("%w: cancelled count: %v", apperrors.ErrReportGeneration, err)
	}
	refunded, err := s.sales.CountBySessionAndStatusTx(ctx, tx, sesion.ID, model.SaleRefunded)
	if err != nil {
		return nil, fmt.Errorf("%w: refunded count: %v", apperrors.ErrReportGeneration, err)
	}

	closedAt := time.Now()
	if sesion.ClosedAt != nil {
		closedAt = *sesion.ClosedAt
	}
	// The report is dated by the calendar day of the close in its own zone;
	// truncating to UTC would shift post-midnight closes to the previous day.
	y, m, d := closedAt.Date()

	report := &model.ZReport{
		ReportNumber:    number,
		CashSessionID:   sesion.ID,
		ReportDate:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		OpeningBalance:  sesion.OpeningBalance,
		ClosingBalance:  deref(sesion.ClosingBalance),
		ExpectedBalance: rec.ExpectedBalance,
		Difference:      deref(sesion.Difference),
		TotalSales:      rec.TotalSales,
		TotalCash:       rec.TotalCash,
		TotalCard:       rec.TotalCard,
		TotalOther:      rec.TotalOther,
		TotalIn:         rec.TotalIn,
		TotalOut:        rec.TotalOut,
		SalesCount:      rec.SalesCount,
		CancelledCount:  int(cancelled),
		RefundedCount:   int(refunded),
		GeneratedBy:     generatedBy,
	}

	if err := s.zreports.CreateTx(ctx, tx, report); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReportGeneration, err)
	}

	log.Info().
		Int64("report_number", number).
		Str("session_number", sesion.SessionNumber).
		Msg("z-report generated")

	return report, nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func (s *zReportService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ZReportResponse, error) {
	report, err := s.zreports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReportNotFound
		}
		return nil, err
	}
	return toZReportResponse(report), nil
}

func (s *zReportService) GetBySession(ctx context.Context, sessionID uuid.UUID) (*dto.ZReportResponse, error) {
	report, err := s.zreports.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w for session %s", apperrors.ErrReportNotFound, sessionID)
	}
	return toZReportResponse(report), nil
}

func (s *zReportService) List(ctx context.Context, dateFrom, dateTo *time.Time, page, limit int) (*dto.ZReportListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var from, to string
	if dateFrom != nil {
		from = dateFrom.Format("2006-01-02")
	}
	if dateTo != nil {
		to = dateTo.Format("2006-01-02")
	}
	reports, total, err := s.zreports.List(ctx, from, to, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ZReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, *toZReportResponse(&reports[i]))
	}
	return &dto.ZReportListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// MarkPrinted is idempotent: re-printing an already printed report keeps the
// original printed_at timestamp.
func (s *zReportService) MarkPrinted(ctx context.Context, id uuid.UUID) (*dto.ZReportResponse, error) {
	report, err := s.zreports.MarkPrinted(ctx, id, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReportNotFound
		}
		return nil, err
	}
	return toZReportResponse(report), nil
}
