package handler

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apierror"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("validation_error", "JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError translates a service error into its HTTP status and the
// canonical error envelope. Unknown errors become an opaque 500 and are left
// on the context for the ErrorHandler middleware to log.
func respondError(c *gin.Context, err error) {
	kind := apperrors.Kind(err)
	status, known := statusForKind[kind]
	if !known || status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("internal", "Error interno del servidor"))
		return
	}
	c.JSON(status, apierror.New(kind, err.Error()))
}

var statusForKind = map[string]int{
	"validation_error":          http.StatusBadRequest,
	"session_already_open":      http.StatusConflict,
	"session_not_active":        http.StatusConflict,
	"session_already_closed":    http.StatusConflict,
	"session_not_found":         http.StatusNotFound,
	"no_active_session":         http.StatusConflict,
	"reconciliation_failure":    http.StatusInternalServerError,
	"report_generation_failure": http.StatusInternalServerError,
	"report_not_found":          http.StatusNotFound,
	"concurrency_conflict":      http.StatusConflict,
	"internal":                  http.StatusInternalServerError,
}
