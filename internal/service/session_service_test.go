package service_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/reconcile"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/service"
)

// ── In-memory repositories ────────────────────────────────────────────────────

// uniqueViolation mimics the error the postgres driver surfaces when an index
// rejects a write, so the services' constraint mapping runs against the fakes.
func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func slotTerminal(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}

// memSessionRepo enforces the same unique indexes the schema declares: one
// session number, and at most one open session per operator/terminal slot.
type memSessionRepo struct {
	sessions map[uuid.UUID]*model.CashSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *memSessionRepo) DB() *gorm.DB { return nil }

func (r *memSessionRepo) CreateTx(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	for _, existing := range r.sessions {
		if existing.SessionNumber == s.SessionNumber {
			return uniqueViolation(repository.ConstraintSessionNumber)
		}
		if existing.Status == model.SessionOpen &&
			existing.OperatorID == s.OperatorID &&
			slotTerminal(existing.TerminalID) == slotTerminal(s.TerminalID) {
			return uniqueViolation(repository.ConstraintOpenSlot)
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) FindByIDForUpdateTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	return r.FindByID(ctx, id)
}

func (r *memSessionRepo) FindOpen(_ context.Context, operatorID uuid.UUID, terminalID *string) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.OperatorID != operatorID || s.Status != model.SessionOpen {
			continue
		}
		if (s.TerminalID == nil) != (terminalID == nil) {
			continue
		}
		if terminalID != nil && *s.TerminalID != *terminalID {
			continue
		}
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *memSessionRepo) UpdateTx(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	if s.Status == model.SessionOpen {
		for _, existing := range r.sessions {
			if existing.ID != s.ID && existing.Status == model.SessionOpen &&
				existing.OperatorID == s.OperatorID &&
				slotTerminal(existing.TerminalID) == slotTerminal(s.TerminalID) {
				return uniqueViolation(repository.ConstraintOpenSlot)
			}
		}
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) CountOpenedOn(_ context.Context, day time.Time) (int64, error) {
	var count int64
	for _, s := range r.sessions {
		if s.OpenedAt.Format("20060102") == day.Format("20060102") {
			count++
		}
	}
	return count, nil
}

func (r *memSessionRepo) List(_ context.Context, filter dto.SessionFilter) ([]model.CashSession, int64, error) {
	var all []model.CashSession
	for _, s := range r.sessions {
		if filter.Status != "" && filter.Status != "all" && s.Status != filter.Status {
			continue
		}
		all = append(all, *s)
	}
	return all, int64(len(all)), nil
}

var _ repository.SessionRepository = (*memSessionRepo)(nil)

type memMovementRepo struct {
	movements []model.CashMovement
}

func (r *memMovementRepo) AppendTx(_ context.Context, _ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Seq = int64(len(r.movements) + 1)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memMovementRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.CashSessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *memMovementRepo) ListBySessionTx(ctx context.Context, _ *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return r.ListBySession(ctx, sessionID)
}

var _ repository.MovementRepository = (*memMovementRepo)(nil)

type memZReportRepo struct {
	reports map[uuid.UUID]*model.ZReport
	nextNum int64
}

func newMemZReportRepo() *memZReportRepo {
	return &memZReportRepo{reports: make(map[uuid.UUID]*model.ZReport)}
}

func (r *memZReportRepo) NextReportNumberTx(_ context.Context, _ *gorm.DB) (int64, error) {
	r.nextNum++
	return r.nextNum, nil
}

func (r *memZReportRepo) CreateTx(_ context.Context, _ *gorm.DB, z *model.ZReport) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	z.CreatedAt = time.Now()
	cp := *z
	r.reports[z.ID] = &cp
	return nil
}

func (r *memZReportRepo) FindBySession(_ context.Context, sessionID uuid.UUID) (*model.ZReport, error) {
	for _, z := range r.reports {
		if z.CashSessionID == sessionID {
			cp := *z
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memZReportRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ZReport, error) {
	z, ok := r.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *z
	return &cp, nil
}

func (r *memZReportRepo) List(_ context.Context, _, _ string, _, _ int) ([]model.ZReport, int64, error) {
	var all []model.ZReport
	for _, z := range r.reports {
		all = append(all, *z)
	}
	return all, int64(len(all)), nil
}

func (r *memZReportRepo) MarkPrinted(ctx context.Context, id uuid.UUID, at time.Time) (*model.ZReport, error) {
	z, ok := r.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !z.Printed {
		z.Printed = true
		z.PrintedAt = &at
	}
	cp := *z
	return &cp, nil
}

var _ repository.ZReportRepository = (*memZReportRepo)(nil)

type memSaleRepo struct {
	bindings map[uuid.UUID]uuid.UUID // sale → session
	statuses map[uuid.UUID]string
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{
		bindings: make(map[uuid.UUID]uuid.UUID),
		statuses: make(map[uuid.UUID]string),
	}
}

func (r *memSaleRepo) BindToSessionTx(_ context.Context, _ *gorm.DB, saleID, sessionID uuid.UUID) error {
	r.bindings[saleID] = sessionID
	return nil
}

func (r *memSaleRepo) CountBySessionAndStatusTx(_ context.Context, _ *gorm.DB, sessionID uuid.UUID, status string) (int64, error) {
	var count int64
	for saleID, boundSession := range r.bindings {
		if boundSession == sessionID && r.statuses[saleID] == status {
			count++
		}
	}
	return count, nil
}

var _ repository.SaleRepository = (*memSaleRepo)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	sessions  *memSessionRepo
	movements *memMovementRepo
	zreports  *memZReportRepo
	sales     *memSaleRepo

	sessionSvc service.SessionService
	zreportSvc service.ZReportService
	salesSvc   service.SalesLinkage
}

func newFixture() *fixture {
	f := &fixture{
		sessions:  newMemSessionRepo(),
		movements: &memMovementRepo{},
		zreports:  newMemZReportRepo(),
		sales:     newMemSaleRepo(),
	}
	f.zreportSvc = service.NewZReportService(f.zreports, f.sales)
	f.sessionSvc = service.NewSessionService(f.sessions, f.movements, f.zreportSvc, nil, nil)
	f.salesSvc = service.NewSalesLinkage(f.sessions, f.movements, f.sales, nil)
	return f
}

func (f *fixture) open(t *testing.T, operatorID uuid.UUID, opening float64) *dto.SessionResponse {
	t.Helper()
	resp, err := f.sessionSvc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(opening),
	})
	require.NoError(t, err)
	return resp
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestOpenSession(t *testing.T) {
	f := newFixture()

	resp := f.open(t, uuid.New(), 500)

	assert.Equal(t, model.SessionOpen, resp.Status)
	assert.Regexp(t, `^CS-\d{8}-\d{4}$`, resp.SessionNumber)
	assert.Equal(t, "500", resp.OpeningBalance.String())

	// The opening movement is in the ledger
	require.Len(t, f.movements.movements, 1)
	assert.Equal(t, model.MovementOpening, f.movements.movements[0].Type)
	assert.Equal(t, int64(50000), f.movements.movements[0].Amount)
}

func TestOpenSessionDuplicate(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()

	f.open(t, operatorID, 500)

	_, err := f.sessionSvc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(200),
	})
	assert.ErrorIs(t, err, apperrors.ErrSessionAlreadyOpen)
}

func TestOpenSessionDistinctTerminals(t *testing.T) {
	// The same operator may hold one open session per terminal.
	f := newFixture()
	operatorID := uuid.New()
	t1, t2 := "POS-1", "POS-2"

	_, err := f.sessionSvc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		TerminalID: &t1, OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	_, err = f.sessionSvc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		TerminalID: &t2, OpeningBalance: decimal.NewFromFloat(100),
	})
	assert.NoError(t, err)
}

func TestOpenSessionRejectsSubCentPrecision(t *testing.T) {
	f := newFixture()

	_, err := f.sessionSvc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.RequireFromString("10.005"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestManualMovements(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 500)

	_, err := f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID,
		Type:      model.MovementIn,
		Amount:    decimal.NewFromFloat(50),
		Reason:    "Fondo de cambio",
	})
	require.NoError(t, err)

	_, err = f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID,
		Type:      model.MovementOut,
		Amount:    decimal.NewFromFloat(100),
		Reason:    "Pago a proveedor",
	})
	require.NoError(t, err)

	updated, err := f.sessionSvc.GetSession(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "50", updated.Totals.In.String())
	assert.Equal(t, "100", updated.Totals.Out.String())
}

func TestManualMovementRequiresReason(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID,
		Type:      model.MovementOut,
		Amount:    decimal.NewFromFloat(10),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRecordSale(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 500)

	saleID := uuid.New()
	recorded, err := f.salesSvc.RecordSale(context.Background(), operatorID, dto.SaleCompletedRequest{
		SaleID:        saleID.String(),
		Total:         decimal.NewFromFloat(200),
		PaymentMethod: model.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, recorded.SessionID)

	// Sale is bound to the session and aggregates updated
	assert.Equal(t, resp.ID, f.sales.bindings[saleID].String())
	updated, err := f.sessionSvc.GetSession(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "200", updated.Totals.Sales.String())
	assert.Equal(t, "200", updated.Totals.Cash.String())
	assert.Equal(t, 1, updated.SalesCount)
}

func TestRecordSaleWithoutSession(t *testing.T) {
	f := newFixture()

	_, err := f.salesSvc.RecordSale(context.Background(), uuid.New(), dto.SaleCompletedRequest{
		SaleID:        uuid.NewString(),
		Total:         decimal.NewFromFloat(100),
		PaymentMethod: model.MethodCash,
	})
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)
}

func TestCloseSessionWithShortage(t *testing.T) {
	// Opening 500, cash sale 200, card sale 150, out 100:
	// expected drawer = 500 + 200 - 100 = 600. Counted 595 → difference -5.
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 500)

	_, err := f.salesSvc.RecordSale(context.Background(), operatorID, dto.SaleCompletedRequest{
		SaleID: uuid.NewString(), Total: decimal.NewFromFloat(200), PaymentMethod: model.MethodCash,
	})
	require.NoError(t, err)
	_, err = f.salesSvc.RecordSale(context.Background(), operatorID, dto.SaleCompletedRequest{
		SaleID: uuid.NewString(), Total: decimal.NewFromFloat(150), PaymentMethod: model.MethodCard,
	})
	require.NoError(t, err)
	_, err = f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID, Type: model.MovementOut,
		Amount: decimal.NewFromFloat(100), Reason: "Pago a proveedor",
	})
	require.NoError(t, err)

	closed, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID:      resp.ID,
		CountedBalance: decimal.NewFromFloat(595),
	})
	require.NoError(t, err)

	assert.Equal(t, model.SessionClosed, closed.Session.Status)
	require.NotNil(t, closed.Session.ExpectedBalance)
	assert.Equal(t, "600", closed.Session.ExpectedBalance.String())
	require.NotNil(t, closed.Session.Difference)
	assert.Equal(t, "-5", closed.Session.Difference.String())

	// Z-report generated in the same operation
	assert.Equal(t, int64(1), closed.Report.ReportNumber)
	assert.Equal(t, "350", closed.Report.Totals.Sales.String())
	assert.Equal(t, "200", closed.Report.Totals.Cash.String())
	assert.Equal(t, "150", closed.Report.Totals.Card.String())
	assert.Equal(t, 2, closed.Report.SalesCount)

	// Closing movement recorded with the counted balance
	last := f.movements.movements[len(f.movements.movements)-1]
	assert.Equal(t, model.MovementClosing, last.Type)
	assert.Equal(t, int64(59500), last.Amount)
}

func TestMovementAfterClose(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	_, err = f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID, Type: model.MovementIn,
		Amount: decimal.NewFromFloat(10), Reason: "Tarde",
	})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)
}

func TestCloseTwice(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	_, err = f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	assert.ErrorIs(t, err, apperrors.ErrSessionAlreadyClosed)
}

func TestSuspendAndResume(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)
	sessionID := uuid.MustParse(resp.ID)

	suspended, err := f.sessionSvc.Suspend(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionSuspended, suspended.Status)

	// No movements while suspended
	_, err = f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID, Type: model.MovementIn,
		Amount: decimal.NewFromFloat(10), Reason: "Fondo",
	})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)

	resumed, err := f.sessionSvc.Resume(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionOpen, resumed.Status)

	_, err = f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
		SessionID: resp.ID, Type: model.MovementIn,
		Amount: decimal.NewFromFloat(10), Reason: "Fondo",
	})
	assert.NoError(t, err)
}

func TestCloseFromSuspended(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.Suspend(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	closed, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, closed.Session.Status)
}

func TestSuspendFreesOpenSlot(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.Suspend(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	// A new session can open while the first is suspended
	second := f.open(t, operatorID, 50)
	assert.NotEqual(t, resp.ID, second.ID)
}

func TestGetActive(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()

	none, err := f.sessionSvc.GetActive(context.Background(), operatorID, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	resp := f.open(t, operatorID, 100)

	active, err := f.sessionSvc.GetActive(context.Background(), operatorID, nil)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, resp.ID, active.ID)
}

func TestXReport(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 500)

	_, err := f.salesSvc.RecordSale(context.Background(), operatorID, dto.SaleCompletedRequest{
		SaleID: uuid.NewString(), Total: decimal.NewFromFloat(200), PaymentMethod: model.MethodCash,
	})
	require.NoError(t, err)

	x, err := f.sessionSvc.XReport(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "700", x.ExpectedBalance.String())
	assert.Equal(t, 1, x.SalesCount)

	// The session stays open: an X report is a snapshot, not a close.
	after, err := f.sessionSvc.GetSession(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.SessionOpen, after.Status)
}

func TestXReportRequiresOpenSession(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	_, err = f.sessionSvc.XReport(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)
}

func TestZReportLifecycle(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)
	sessionID := uuid.MustParse(resp.ID)

	// No report before close
	_, err := f.zreportSvc.GetBySession(context.Background(), sessionID)
	assert.ErrorIs(t, err, apperrors.ErrReportNotFound)

	closed, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	report, err := f.zreportSvc.GetBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, closed.Report.ID, report.ID)
	assert.False(t, report.Printed)

	printed, err := f.zreportSvc.MarkPrinted(context.Background(), uuid.MustParse(report.ID))
	require.NoError(t, err)
	assert.True(t, printed.Printed)
	require.NotNil(t, printed.PrintedAt)

	// Idempotent: second print keeps the original timestamp
	again, err := f.zreportSvc.MarkPrinted(context.Background(), uuid.MustParse(report.ID))
	require.NoError(t, err)
	assert.Equal(t, *printed.PrintedAt, *again.PrintedAt)
}

func TestZReportNumbersMonotonic(t *testing.T) {
	f := newFixture()

	for i := 1; i <= 3; i++ {
		operatorID := uuid.New()
		resp := f.open(t, operatorID, 100)
		closed, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
			SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i), closed.Report.ReportNumber)
	}
}

func TestCloseCountsCancelledSales(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)
	sessionID := uuid.MustParse(resp.ID)

	cancelled := uuid.New()
	f.sales.bindings[cancelled] = sessionID
	f.sales.statuses[cancelled] = model.SaleCancelled

	closed, err := f.sessionSvc.Close(context.Background(), operatorID, dto.CloseSessionRequest{
		SessionID: resp.ID, CountedBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, closed.Report.CancelledCount)
}

// openSlotRaceRepo hides the rival's row from the next pre-insert lookup, as
// when a competing open commits between the check and the insert. The unique
// index on the open slot is then the only thing standing.
type openSlotRaceRepo struct {
	*memSessionRepo
	dropNext bool
}

func (r *openSlotRaceRepo) FindOpen(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*model.CashSession, error) {
	if r.dropNext {
		r.dropNext = false
		return nil, nil
	}
	return r.memSessionRepo.FindOpen(ctx, operatorID, terminalID)
}

func TestOpenSessionRaceRejectedByIndex(t *testing.T) {
	sessions := &openSlotRaceRepo{memSessionRepo: newMemSessionRepo()}
	movements := &memMovementRepo{}
	zreportSvc := service.NewZReportService(newMemZReportRepo(), newMemSaleRepo())
	svc := service.NewSessionService(sessions, movements, zreportSvc, nil, nil)
	operatorID := uuid.New()

	_, err := svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	sessions.dropNext = true
	_, err = svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(100),
	})
	assert.ErrorIs(t, err, apperrors.ErrSessionAlreadyOpen)

	// Only the winner's row exists.
	assert.Len(t, sessions.sessions, 1)
}

func TestResumeRejectedWhenSlotRetaken(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	first := f.open(t, operatorID, 100)

	_, err := f.sessionSvc.Suspend(context.Background(), uuid.MustParse(first.ID))
	require.NoError(t, err)

	// The freed slot is taken by a new session while the first sits suspended.
	f.open(t, operatorID, 50)

	_, err = f.sessionSvc.Resume(context.Background(), uuid.MustParse(first.ID))
	assert.ErrorIs(t, err, apperrors.ErrSessionAlreadyOpen)

	after, err := f.sessionSvc.GetSession(context.Background(), uuid.MustParse(first.ID))
	require.NoError(t, err)
	assert.Equal(t, model.SessionSuspended, after.Status)
}

func TestMovementOrderFollowsInsertion(t *testing.T) {
	f := newFixture()
	operatorID := uuid.New()
	resp := f.open(t, operatorID, 100)

	// Posted back to back, so wall-clock timestamps may collide.
	reasons := []string{"Fondo A", "Fondo B", "Fondo C"}
	for _, reason := range reasons {
		_, err := f.sessionSvc.PostMovement(context.Background(), operatorID, dto.PostMovementRequest{
			SessionID: resp.ID, Type: model.MovementIn,
			Amount: decimal.NewFromFloat(10), Reason: reason,
		})
		require.NoError(t, err)
	}

	movs, err := f.sessionSvc.Movements(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Len(t, movs, 4)
	assert.Equal(t, model.MovementOpening, movs[0].Type)
	for i, reason := range reasons {
		assert.Equal(t, reason, movs[i+1].Reason)
	}

	for i := 1; i < len(f.movements.movements); i++ {
		assert.Greater(t, f.movements.movements[i].Seq, f.movements.movements[i-1].Seq)
	}
}

func TestZReportDateKeepsClosingDay(t *testing.T) {
	f := newFixture()

	// 00:30 local on March 10 is still March 9 in UTC; the report carries the
	// local closing day.
	loc := time.FixedZone("UTC+2", 2*60*60)
	closedAt := time.Date(2026, 3, 10, 0, 30, 0, 0, loc)
	counted := int64(10000)
	diff := int64(0)
	sesion := &model.CashSession{
		ID:             uuid.New(),
		SessionNumber:  "CS-20260310-0001",
		OperatorID:     uuid.New(),
		Status:         model.SessionClosed,
		OpeningBalance: 10000,
		ClosingBalance: &counted,
		Difference:     &diff,
		ClosedAt:       &closedAt,
	}

	report, err := f.zreportSvc.GenerateTx(context.Background(), nil, sesion,
		reconcile.Result{ExpectedBalance: 10000}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", report.ReportDate.Format("2006-01-02"))
}
