package server

import (
	"errors"
	"net/http"

	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	masivodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/masivo/domain"
	previewdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/preview/domain"
	rollbackdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	sociodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/twophase"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "",
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, exenciondomain.ErrTransicionInvalida),
		errors.Is(err, cuotadomain.ErrCuotaPagadaInmutable),
		errors.Is(err, rollbackdomain.ErrRollbackBloqueado),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, cuotadomain.ErrOverflowCalculo):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, periodo.ErrPeriodoInvalido),
		errors.Is(err, twophase.ErrModoInvalido),
		errors.Is(err, cuotadomain.ErrCategoriaInvalida),
		errors.Is(err, ajustedomain.ErrMontoCero),
		errors.Is(err, ajustedomain.ErrMotivoRequerido),
		errors.Is(err, ajustedomain.ErrActorRequerido),
		errors.Is(err, exenciondomain.ErrTipoInvalido),
		errors.Is(err, exenciondomain.ErrMotivoInvalido),
		errors.Is(err, exenciondomain.ErrPorcentajeInvalido),
		errors.Is(err, exenciondomain.ErrTotalRequiereCien),
		errors.Is(err, exenciondomain.ErrRangoFechasInvalido),
		errors.Is(err, exenciondomain.ErrMotivoResolucionFaltante),
		errors.Is(err, exenciondomain.ErrAprobadorRequerido),
		errors.Is(err, previewdomain.ErrPreviewSinObjetivo),
		errors.Is(err, masivodomain.ErrCambioInvalido),
		errors.Is(err, masivodomain.ErrActorRequerido),
		errors.Is(err, rollbackdomain.ErrTargetInvalido):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sociodomain.ErrSocioNoEncontrado),
		errors.Is(err, categoriadomain.ErrCategoriaNoEncontrada),
		errors.Is(err, cuotadomain.ErrCuotaNoEncontrada),
		errors.Is(err, exenciondomain.ErrExencionNoEncontrada),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
