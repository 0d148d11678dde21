package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apierror"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/dto"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/middleware"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/service"
)

type SalesHandler struct{ svc service.SalesLinkage }

func NewSalesHandler(svc service.SalesLinkage) *SalesHandler { return &SalesHandler{svc: svc} }

// Completed godoc
// @Summary Registra una venta completada en la sesion de caja activa
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SaleCompletedRequest true "Venta completada"
// @Success 201 {object} dto.SaleRecordedResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/sales/completed [post]
func (h *SalesHandler) Completed(c *gin.Context) {
	var req dto.SaleCompletedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("unauthorized", "Operador invalido"))
		return
	}

	resp, err := h.svc.RecordSale(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
