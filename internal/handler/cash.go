package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apierror"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/middleware"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/service"
)

type CashHandler struct{ svc service.SessionService }

func NewCashHandler(svc service.SessionService) *CashHandler { return &CashHandler{svc: svc} }

// Open godoc
// @Summary Abre una nueva sesion de caja
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Datos de apertura"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/open [post]
func (h *CashHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("unauthorized", "Operador invalido"))
		return
	}

	resp, err := h.svc.Open(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Movement godoc
// @Summary Registra un ingreso o egreso manual en caja
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PostMovementRequest true "Movimiento manual"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/movement [post]
func (h *CashHandler) Movement(c *gin.Context) {
	var req dto.PostMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("unauthorized", "Operador invalido"))
		return
	}

	resp, err := h.svc.PostMovement(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Cierra la sesion con el conteo declarado y genera el reporte Z
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseSessionRequest true "Conteo de cierre"
// @Success 200 {object} dto.CloseSessionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/close [post]
func (h *CashHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("unauthorized", "Operador invalido"))
		return
	}

	resp, err := h.svc.Close(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Suspend godoc
// @Summary Suspende temporalmente una sesion abierta
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/{id}/suspend [post]
func (h *CashHandler) Suspend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.Suspend(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resume godoc
// @Summary Reanuda una sesion suspendida
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/{id}/resume [post]
func (h *CashHandler) Resume(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.Resume(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActive returns the open session for the authenticated operator, scoped
// by the optional terminal_id query param.
func (h *CashHandler) GetActive(c *gin.Context) {
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("unauthorized", "Operador invalido"))
		return
	}
	var terminalID *string
	if t := c.Query("terminal_id"); t != "" {
		terminalID = &t
	}

	resp, err := h.svc.GetActive(c.Request.Context(), operatorID, terminalID)
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("no_active_session", "Sin sesion activa"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Obtiene una sesion por ID
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash/{id} [get]
func (h *CashHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements returns the full ordered ledger of a session.
func (h *CashHandler) Movements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.Movements(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// XReport godoc
// @Summary Genera un reporte X (corte parcial) de la sesion abierta
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.XReportResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/{id}/x-report [get]
func (h *CashHandler) XReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.XReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated, filterable list of sessions.
func (h *CashHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := dto.SessionFilter{
		Status:     c.Query("status"),
		OperatorID: c.Query("operator_id"),
		TerminalID: c.Query("terminal_id"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
		Page:       page,
		Limit:      limit,
	}
	resp, err := h.svc.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
