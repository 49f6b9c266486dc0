package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ResolverTarifa(c *gin.Context) {
	categoriaID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	p, err := parsePeriodoQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tarifa, err := s.categoriaSvc.ResolverTarifa(c.Request.Context(), categoriaID, p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tarifa)
}
