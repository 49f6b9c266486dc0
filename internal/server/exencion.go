package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type crearExencionRequest struct {
	SocioID       snowflake.ID    `json:"socio_id"`
	Tipo          string          `json:"tipo"`
	Motivo        string          `json:"motivo"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	FechaInicio   time.Time       `json:"fecha_inicio"`
	FechaFin      *time.Time      `json:"fecha_fin,omitempty"`
	Justificacion string          `json:"justificacion,omitempty"`
	Actor         string          `json:"actor"`
}

type resolverExencionRequest struct {
	Actor  string `json:"actor"`
	Motivo string `json:"motivo,omitempty"`
}

func (s *Server) CrearExencion(c *gin.Context) {
	var req crearExencionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	exencion, err := s.exencionSvc.Crear(c.Request.Context(), exenciondomain.Exencion{
		SocioID:       req.SocioID,
		Tipo:          req.Tipo,
		Motivo:        req.Motivo,
		Porcentaje:    req.Porcentaje,
		FechaInicio:   req.FechaInicio,
		FechaFin:      req.FechaFin,
		Justificacion: req.Justificacion,
	}, req.Actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exencion)
}

func (s *Server) GetExencion(c *gin.Context) {
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	exencion, err := s.exencionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, exencion)
}

func (s *Server) AprobarExencion(c *gin.Context) {
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req resolverExencionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	exencion, err := s.exencionSvc.Aprobar(c.Request.Context(), id, req.Actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, exencion)
}

func (s *Server) RechazarExencion(c *gin.Context) {
	s.resolverExencion(c, s.exencionSvc.Rechazar)
}

func (s *Server) RevocarExencion(c *gin.Context) {
	s.resolverExencion(c, s.exencionSvc.Revocar)
}

func (s *Server) resolverExencion(c *gin.Context, fn func(ctx context.Context, id snowflake.ID, actor, motivo string) (*exenciondomain.Exencion, error)) {
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req resolverExencionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	exencion, err := fn(c.Request.Context(), id, req.Actor, req.Motivo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, exencion)
}

// ReconciliarExenciones refreshes stored exemption states against the clock.
// Pricing lookups do not depend on it, but it keeps the persisted rows and
// their audit trail current.
func (s *Server) ReconciliarExenciones(c *gin.Context) {
	transiciones, err := s.exencionSvc.Reconciliar(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transiciones": transiciones})
}

func (s *Server) ListExencionesSocio(c *gin.Context) {
	socioID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	exenciones, err := s.exencionSvc.ListBySocio(c.Request.Context(), socioID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exenciones": exenciones})
}
