package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/money"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/reconcile"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/worker"
)

type SessionService interface {
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	PostMovement(ctx context.Context, operatorID uuid.UUID, req dto.PostMovementRequest) (*dto.MovementResponse, error)
	Close(ctx context.Context, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	Suspend(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	Resume(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	// GetActive returns nil (no error) when the operator/terminal pair has no
	// open session.
	GetActive(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	Movements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error)
	XReport(ctx context.Context, sessionID uuid.UUID) (*dto.XReportResponse, error)
	History(ctx context.Context, filter dto.SessionFilter) (*dto.SessionListResponse, error)
}

type sessionService struct {
	sessions   repository.SessionRepository
	movements  repository.MovementRepository
	zreports   ZReportService
	cache      *sessionCache
	dispatcher *worker.Dispatcher
}

func NewSessionService(
	sessions repository.SessionRepository,
	movements repository.MovementRepository,
	zreports ZReportService,
	rdb *redis.Client,
	dispatcher *worker.Dispatcher,
) SessionService {
	return &sessionService{
		sessions:   sessions,
		movements:  movements,
		zreports:   zreports,
		cache:      newSessionCache(rdb),
		dispatcher: dispatcher,
	}
}

// ─── Open ────────────────────────────────────────────────────────────────────

func (s *sessionService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	openingBalance, err := money.ToCents(req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	if openingBalance < 0 {
		return nil, apperrors.Validationf("opening balance must be >= 0")
	}

	// Fast-path guard for the common case; the partial unique index on
	// (operator, terminal, status=open) closes the check-then-act window.
	if existing, err := s.sessions.FindOpen(ctx, operatorID, req.TerminalID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w for operator %s", apperrors.ErrSessionAlreadyOpen, operatorID)
	}

	now := time.Now()
	countToday, err := s.sessions.CountOpenedOn(ctx, now)
	if err != nil {
		return nil, err
	}

	var sesion *model.CashSession
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		candidate := &model.CashSession{
			SessionNumber:  sessionNumber(now, countToday+1+int64(attempt)),
			OperatorID:     operatorID,
			TerminalID:     req.TerminalID,
			Status:         model.SessionOpen,
			OpeningBalance: openingBalance,
			OpeningNotes:   req.Notes,
			OpenedAt:       now,
		}

		txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
			if err := s.sessions.CreateTx(ctx, tx, candidate); err != nil {
				return err
			}
			method := model.MethodCash
			opening := &model.CashMovement{
				CashSessionID: candidate.ID,
				Type:          model.MovementOpening,
				Amount:        openingBalance,
				PaymentMethod: &method,
				Reason:        "Apertura de caja",
				OperatorID:    operatorID,
			}
			return s.movements.AppendTx(ctx, tx, opening)
		})

		switch {
		case txErr == nil:
			sesion = candidate
		case repository.IsUniqueViolation(txErr, repository.ConstraintOpenSlot):
			return nil, fmt.Errorf("%w for operator %s", apperrors.ErrSessionAlreadyOpen, operatorID)
		case repository.IsUniqueViolation(txErr, repository.ConstraintSessionNumber):
			// Another opener took this day counter value; retry with the next.
			continue
		default:
			return nil, txErr
		}
		break
	}
	if sesion == nil {
		return nil, fmt.Errorf("%w: session number allocation exhausted retries", apperrors.ErrConcurrencyConflict)
	}

	s.cache.set(ctx, operatorID, req.TerminalID, sesion.ID)
	log.Info().
		Str("session_number", sesion.SessionNumber).
		Str("operator_id", operatorID.String()).
		Msg("cash session opened")

	return toSessionResponse(sesion), nil
}

// sessionNumber formats CS-YYYYMMDD-NNNN with a per-day counter.
func sessionNumber(day time.Time, n int64) string {
	return fmt.Sprintf("CS-%s-%04d", day.Format("20060102"), n)
}

// ─── PostMovement ────────────────────────────────────────────────────────────

func (s *sessionService) PostMovement(ctx context.Context, operatorID uuid.UUID, req dto.PostMovementRequest) (*dto.MovementResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apperrors.Validationf("session_id invalido: %v", err)
	}
	amount, err := money.ToCents(req.Amount)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.Validationf("amount must be > 0")
	}
	if req.Type != model.MovementIn && req.Type != model.MovementOut {
		return nil, apperrors.Validationf("unknown movement type %q", req.Type)
	}
	if req.Reason == "" {
		return nil, apperrors.Validationf("reason is required for %s movements", req.Type)
	}
	method := req.PaymentMethod
	if method == "" {
		method = model.MethodCash
	}

	mov := &model.CashMovement{
		CashSessionID: sessionID,
		Type:          req.Type,
		Amount:        amount,
		PaymentMethod: &method,
		Reason:        req.Reason,
		OperatorID:    operatorID,
	}

	if err := s.appendMovement(ctx, sessionID, mov); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("type", req.Type).
		Int64("amount", amount).
		Msg("cash movement posted")

	return toMovementResponse(mov), nil
}

// appendMovement is the single write path into a session's ledger: lock the
// session row, validate it is open, insert the movement, and fold it into the
// running aggregates — one atomic unit.
func (s *sessionService) appendMovement(ctx context.Context, sessionID uuid.UUID, mov *model.CashMovement) error {
	return runTxRetry(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		sesion, err := s.sessions.FindByIDForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSessionNotFound
			}
			return err
		}
		if sesion.Status != model.SessionOpen {
			return fmt.Errorf("%w: session %s is %s", apperrors.ErrSessionNotActive, sesion.SessionNumber, sesion.Status)
		}

		if err := s.movements.AppendTx(ctx, tx, mov); err != nil {
			return err
		}
		applyMovement(sesion, mov)
		return s.sessions.UpdateTx(ctx, tx, sesion)
	})
}

// ─── Close ───────────────────────────────────────────────────────────────────

// Close reconciles, appends the closing movement, transitions the session to
// closed and generates the Z-report — all in one transaction. If any step
// fails (including report persistence) the whole close rolls back and the
// session keeps its prior state.
func (s *sessionService) Close(ctx context.Context, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apperrors.Validationf("session_id invalido: %v", err)
	}
	counted, err := money.ToCents(req.CountedBalance)
	if err != nil {
		return nil, err
	}
	if counted < 0 {
		return nil, apperrors.Validationf("counted balance must be >= 0")
	}

	var (
		sesion *model.CashSession
		report *model.ZReport
	)
	txErr := runTxRetry(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.sessions.FindByIDForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSessionNotFound
			}
			return err
		}
		if sesion.Status == model.SessionClosed {
			return fmt.Errorf("%w: %s", apperrors.ErrSessionAlreadyClosed, sesion.SessionNumber)
		}

		movements, err := s.movements.ListBySessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		rec, err := reconcile.Reconcile(sesion.OpeningBalance, movements)
		if err != nil {
			// Corrupted ledger data: severity-high, manual review required.
			log.Error().
				Str("session_number", sesion.SessionNumber).
				Err(err).
				Msg("reconciliation failed, close rolled back")
			return err
		}

		method := model.MethodCash
		closing := &model.CashMovement{
			CashSessionID: sessionID,
			Type:          model.MovementClosing,
			Amount:        counted,
			PaymentMethod: &method,
			Reason:        "Cierre de caja",
			OperatorID:    operatorID,
		}
		if err := s.movements.AppendTx(ctx, tx, closing); err != nil {
			return err
		}

		now := time.Now()
		expected := rec.ExpectedBalance
		difference := counted - expected
		sesion.Status = model.SessionClosed
		sesion.ClosingBalance = &counted
		sesion.ExpectedBalance = &expected
		sesion.Difference = &difference
		sesion.ClosedAt = &now
		sesion.ClosingNotes = req.Notes
		// The replayed ledger is authoritative over the incremental counters.
		sesion.TotalSales = rec.TotalSales
		sesion.TotalCash = rec.TotalCash
		sesion.TotalCard = rec.TotalCard
		sesion.TotalOther = rec.TotalOther
		sesion.TotalIn = rec.TotalIn
		sesion.TotalOut = rec.TotalOut
		sesion.SalesCount = rec.SalesCount

		if err := s.sessions.UpdateTx(ctx, tx, sesion); err != nil {
			return err
		}

		// A session is never closed without its report: failure here aborts
		// the whole transaction.
		report, err = s.zreports.GenerateTx(ctx, tx, sesion, rec, operatorID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.invalidate(ctx, sesion.OperatorID, sesion.TerminalID)

	// Best-effort print dispatch; the close already committed.
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReportPrint(ctx, worker.ReportPrintPayload{ReportID: report.ID.String()}); err != nil {
			log.Warn().Err(err).Str("report_id", report.ID.String()).Msg("print dispatch failed")
		}
	}

	log.Info().
		Str("session_number", sesion.SessionNumber).
		Int64("report_number", report.ReportNumber).
		Int64("difference", *sesion.Difference).
		Msg("cash session closed")

	return &dto.CloseSessionResponse{
		Session: *toSessionResponse(sesion),
		Report:  *toZReportResponse(report),
	}, nil
}

// ─── Suspend / Resume ────────────────────────────────────────────────────────
// Pure state transitions, no monetary side effects.

func (s *sessionService) Suspend(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	var sesion *model.CashSession
	txErr := runTxRetry(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.sessions.FindByIDForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSessionNotFound
			}
			return err
		}
		switch sesion.Status {
		case model.SessionClosed:
			return fmt.Errorf("%w: %s", apperrors.ErrSessionAlreadyClosed, sesion.SessionNumber)
		case model.SessionSuspended:
			return fmt.Errorf("%w: session %s is already suspended", apperrors.ErrSessionNotActive, sesion.SessionNumber)
		}
		sesion.Status = model.SessionSuspended
		return s.sessions.UpdateTx(ctx, tx, sesion)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.invalidate(ctx, sesion.OperatorID, sesion.TerminalID)
	return toSessionResponse(sesion), nil
}

func (s *sessionService) Resume(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	var sesion *model.CashSession
	txErr := runTxRetry(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.sessions.FindByIDForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSessionNotFound
			}
			return err
		}
		switch sesion.Status {
		case model.SessionClosed:
			return fmt.Errorf("%w: %s", apperrors.ErrSessionAlreadyClosed, sesion.SessionNumber)
		case model.SessionOpen:
			return fmt.Errorf("%w: session %s is not suspended", apperrors.ErrSessionNotActive, sesion.SessionNumber)
		}
		sesion.Status = model.SessionOpen
		return s.sessions.UpdateTx(ctx, tx, sesion)
	})
	if txErr != nil {
		// The open-slot index fires when someone else opened a session for
		// the same operator/terminal while this one was suspended.
		if repository.IsUniqueViolation(txErr, repository.ConstraintOpenSlot) {
			return nil, fmt.Errorf("%w: another session was opened while suspended", apperrors.ErrSessionAlreadyOpen)
		}
		return nil, txErr
	}

	s.cache.set(ctx, sesion.OperatorID, sesion.TerminalID, sesion.ID)
	return toSessionResponse(sesion), nil
}

// ─── Queries ─────────────────────────────────────────────────────────────────

func (s *sessionService) GetActive(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*dto.SessionResponse, error) {
	sesion, err := s.findActive(ctx, operatorID, terminalID)
	if err != nil || sesion == nil {
		return nil, err
	}
	return toSessionResponse(sesion), nil
}

// findActive resolves the open session for an operator/terminal, consulting
// the cache first. Cache hits are verified against the store before use.
func (s *sessionService) findActive(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*model.CashSession, error) {
	if id, ok := s.cache.get(ctx, operatorID, terminalID); ok {
		sesion, err := s.sessions.FindByID(ctx, id)
		if err == nil && sesion.Status == model.SessionOpen {
			return sesion, nil
		}
		s.cache.invalidate(ctx, operatorID, terminalID)
	}

	sesion, err := s.sessions.FindOpen(ctx, operatorID, terminalID)
	if err != nil || sesion == nil {
		return nil, err
	}
	s.cache.set(ctx, operatorID, terminalID, sesion.ID)
	return sesion, nil
}

func (s *sessionService) GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	sesion, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}
	return toSessionResponse(sesion), nil
}

func (s *sessionService) Movements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	movs, err := s.movements.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for i := range movs {
		out = append(out, *toMovementResponse(&movs[i]))
	}
	return out, nil
}

// XReport recomputes the running reconciliation of an open session. It is a
// read-only snapshot and is not persisted: only the Z-report is a legal
// record.
func (s *sessionService) XReport(ctx context.Context, sessionID uuid.UUID) (*dto.XReportResponse, error) {
	sesion, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}
	if sesion.Status != model.SessionOpen {
		return nil, fmt.Errorf("%w: X report requires an open session", apperrors.ErrSessionNotActive)
	}

	movements, err := s.movements.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rec, err := reconcile.Reconcile(sesion.OpeningBalance, movements)
	if err != nil {
		return nil, err
	}

	return &dto.XReportResponse{
		SessionID:       sesion.ID.String(),
		SessionNumber:   sesion.SessionNumber,
		GeneratedAt:     time.Now().UTC().Format(timeLayout),
		OpeningBalance:  money.FromCents(sesion.OpeningBalance),
		ExpectedBalance: money.FromCents(rec.ExpectedBalance),
		Totals: dto.SessionTotals{
			Sales: money.FromCents(rec.TotalSales),
			Cash:  money.FromCents(rec.TotalCash),
			Card:  money.FromCents(rec.TotalCard),
			Other: money.FromCents(rec.TotalOther),
			In:    money.FromCents(rec.TotalIn),
			Out:   money.FromCents(rec.TotalOut),
		},
		SalesCount: rec.SalesCount,
	}, nil
}

func (s *sessionService) History(ctx context.Context, filter dto.SessionFilter) (*dto.SessionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, *toSessionResponse(&sessions[i]))
	}
	return &dto.SessionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}
