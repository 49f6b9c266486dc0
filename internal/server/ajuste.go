package server

import (
	"net/http"

	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type registrarAjusteRequest struct {
	Concepto string          `json:"concepto"`
	Monto    decimal.Decimal `json:"monto"`
	Motivo   string          `json:"motivo"`
	Actor    string          `json:"actor"`
}

func (s *Server) RegistrarAjuste(c *gin.Context) {
	cuotaID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req registrarAjusteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	cuota, err := s.cuotaSvc.GetByID(c.Request.Context(), cuotaID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ajuste, err := s.ajusteSvc.Registrar(c.Request.Context(), ajustedomain.Ajuste{
		SocioID:  cuota.SocioID,
		CuotaID:  &cuota.ID,
		Concepto: req.Concepto,
		Monto:    req.Monto,
		Motivo:   req.Motivo,
		Actor:    req.Actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ajuste)
}

func (s *Server) ListAjustesCuota(c *gin.Context) {
	cuotaID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ajustes, err := s.ajusteSvc.ListForCuota(c.Request.Context(), cuotaID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ajustes": ajustes})
}
