package server

import (
	"net/http"
	"strings"

	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	"github.com/gin-gonic/gin"
)

type generarCuotaRequest struct {
	cuotadomain.CalcularRequest
	Actor string `json:"actor"`
}

func (s *Server) CalcularCuota(c *gin.Context) {
	var req cuotadomain.CalcularRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resultado, err := s.cuotaSvc.Calcular(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultado)
}

func (s *Server) GenerarCuota(c *gin.Context) {
	var req generarCuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	if strings.TrimSpace(req.Actor) == "" {
		AbortWithError(c, newValidationError("actor", "actor_requerido", "actor is required"))
		return
	}

	cuota, err := s.cuotaSvc.Generar(c.Request.Context(), req.CalcularRequest, req.Actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cuota)
}

func (s *Server) GetCuota(c *gin.Context) {
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cuota, err := s.cuotaSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cuota)
}

func (s *Server) ListCuotas(c *gin.Context) {
	filtro, err := parseCuotaFiltro(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cuotas, err := s.cuotaSvc.List(c.Request.Context(), filtro)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cuotas": cuotas})
}

func (s *Server) GetCuotaHistorial(c *gin.Context) {
	id, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entradas, err := s.historialRepo.ListForObjetivo(c.Request.Context(), s.db, historialdomain.ObjetivoCuota, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"historial": entradas})
}

func parseCuotaFiltro(c *gin.Context) (cuotadomain.Filtro, error) {
	var filtro cuotadomain.Filtro
	var err error

	if filtro.PeriodoMes, err = parseOptionalInt(c.Query("mes")); err != nil {
		return filtro, newValidationError("mes", "invalid_mes", "invalid month")
	}
	if filtro.PeriodoAnio, err = parseOptionalInt(c.Query("anio")); err != nil {
		return filtro, newValidationError("anio", "invalid_anio", "invalid year")
	}
	if filtro.SocioID, err = parseOptionalSnowflakeID(c.Query("socio_id")); err != nil {
		return filtro, err
	}
	if filtro.CategoriaID, err = parseOptionalSnowflakeID(c.Query("categoria_id")); err != nil {
		return filtro, err
	}
	if estado := strings.TrimSpace(c.Query("estado")); estado != "" {
		filtro.Estado = &estado
	}
	filtro.ConceptoContiene = strings.TrimSpace(c.Query("concepto"))

	return filtro, nil
}
