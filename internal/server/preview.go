package server

import (
	"net/http"

	previewdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/preview/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) Previsualizar(c *gin.Context) {
	var req previewdomain.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resultado, err := s.previewSvc.Previsualizar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultado)
}

func (s *Server) CompararCuota(c *gin.Context) {
	cuotaID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var propuesta previewdomain.Propuesta
	if err := c.ShouldBindJSON(&propuesta); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	comparacion, err := s.previewSvc.Comparar(c.Request.Context(), cuotaID, propuesta)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, comparacion)
}
