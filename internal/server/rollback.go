package server

import (
	"net/http"

	rollbackdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ValidarRollback(c *gin.Context) {
	p, err := parsePeriodoQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	validacion, err := s.rollbackSvc.Validar(c.Request.Context(), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, validacion)
}

func (s *Server) EjecutarRollback(c *gin.Context) {
	var req rollbackdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	reporte, err := s.rollbackSvc.Ejecutar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, reporte)
}
