package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apierror"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/service"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/worker"
)

type ZReportHandler struct {
	svc        service.ZReportService
	dispatcher *worker.Dispatcher
}

func NewZReportHandler(svc service.ZReportService, dispatcher *worker.Dispatcher) *ZReportHandler {
	return &ZReportHandler{svc: svc, dispatcher: dispatcher}
}

// Get godoc
// @Summary Obtiene un reporte Z por ID
// @Tags z-reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de reporte"
// @Success 200 {object} dto.ZReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/z-reports/{id} [get]
func (h *ZReportHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBySession godoc
// @Summary Obtiene el reporte Z de una sesion
// @Tags z-reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.ZReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash/{id}/z-report [get]
func (h *ZReportHandler) GetBySession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	resp, err := h.svc.GetBySession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lista reportes Z por rango de fechas
// @Tags z-reports
// @Produce json
// @Security BearerAuth
// @Param date_from query string false "Fecha desde (YYYY-MM-DD)"
// @Param date_to query string false "Fecha hasta (YYYY-MM-DD)"
// @Success 200 {object} dto.ZReportListResponse
// @Router /v1/z-reports [get]
func (h *ZReportHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var dateFrom, dateTo *time.Time
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("validation_error", "date_from invalida"))
			return
		}
		dateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("validation_error", "date_to invalida"))
			return
		}
		dateTo = &t
	}

	resp, err := h.svc.List(c.Request.Context(), dateFrom, dateTo, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reprint godoc
// @Summary Reenvia un reporte Z a la impresora
// @Tags z-reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de reporte"
// @Success 202
// @Failure 404 {object} apierror.APIError
// @Router /v1/z-reports/{id}/print [post]
func (h *ZReportHandler) Reprint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "ID invalido"))
		return
	}
	// Existence check before enqueueing
	if _, err := h.svc.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	if h.dispatcher != nil {
		// Enqueue outside the request context so a client disconnect does
		// not drop the job.
		if err := h.dispatcher.EnqueueReportPrint(context.WithoutCancel(c.Request.Context()), worker.ReportPrintPayload{ReportID: id.String()}); err != nil {
			log.Warn().Err(err).Str("report_id", id.String()).Msg("reprint dispatch failed")
			c.JSON(http.StatusServiceUnavailable, apierror.New("internal", "Cola de impresion no disponible"))
			return
		}
	}
	c.Status(http.StatusAccepted)
}
