package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/money"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
)

// SalesLinkage connects the sale flow to the cash ledger: every completed
// sale is bound to the operator's active session and mirrored as a sale
// movement. Sales cannot complete without an open session.
type SalesLinkage interface {
	RecordSale(ctx context.Context, operatorID uuid.UUID, req dto.SaleCompletedRequest) (*dto.SaleRecordedResponse, error)
}

type salesLinkage struct {
	sessions  repository.SessionRepository
	movements repository.MovementRepository
	sales     repository.SaleRepository
	cache     *sessionCache
}

func NewSalesLinkage(
	sessions repository.SessionRepository,
	movements repository.MovementRepository,
	sales repository.SaleRepository,
	rdb *redis.Client,
) SalesLinkage {
	return &salesLinkage{
		sessions:  sessions,
		movements: movements,
		sales:     sales,
		cache:     newSessionCache(rdb),
	}
}

func (s *salesLinkage) RecordSale(ctx context.Context, operatorID uuid.UUID, req dto.SaleCompletedRequest) (*dto.SaleRecordedResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, apperrors.Validationf("sale_id invalido: %v", err)
	}
	amount, err := money.ToCents(req.Total)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.Validationf("sale total must be > 0")
	}

	sesion, err := s.resolveActive(ctx, operatorID, req.TerminalID)
	if err != nil {
		return nil, err
	}
	if sesion == nil {
		return nil, fmt.Errorf("%w for operator %s", apperrors.ErrNoActiveSession, operatorID)
	}

	method := req.PaymentMethod
	mov := &model.CashMovement{
		CashSessionID: sesion.ID,
		Type:          model.MovementSale,
		Amount:        amount,
		PaymentMethod: &method,
		Reason:        "Venta",
		ReferenceID:   &saleID,
		OperatorID:    operatorID,
	}

	txErr := runTxRetry(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		locked, err := s.sessions.FindByIDForUpdateTx(ctx, tx, sesion.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNoActiveSession
			}
			return err
		}
		// The session may have been closed between lookup and lock.
		if locked.Status != model.SessionOpen {
			return fmt.Errorf("%w: session %s is %s", apperrors.ErrNoActiveSession, locked.SessionNumber, locked.Status)
		}
		if err := s.movements.AppendTx(ctx, tx, mov); err != nil {
			return err
		}
		applyMovement(locked, mov)
		if err := s.sessions.UpdateTx(ctx, tx, locked); err != nil {
			return err
		}
		sesion = locked
		return s.sales.BindToSessionTx(ctx, tx, saleID, locked.ID)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("sale_id", saleID.String()).
		Str("session_number", sesion.SessionNumber).
		Int64("amount", amount).
		Str("payment_method", method).
		Msg("sale recorded in cash session")

	return &dto.SaleRecordedResponse{
		SessionID:  sesion.ID.String(),
		MovementID: mov.ID.String(),
		Movement:   *toMovementResponse(mov),
	}, nil
}

// resolveActive finds the operator/terminal's open session, cache first.
func (s *salesLinkage) resolveActive(ctx context.Context, operatorID uuid.UUID, terminalID *string) (*model.CashSession, error) {
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
