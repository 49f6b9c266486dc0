package server

import (
	"net/http"

	masivodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/masivo/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) EjecutarOperacionMasiva(c *gin.Context) {
	var req masivodomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	reporte, err := s.masivoSvc.Ejecutar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, reporte)
}
