package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/gin-gonic/gin"
)

func parsePathID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		return 0, newValidationError("id", "invalid_id", "invalid identifier")
	}
	return id, nil
}

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, newValidationError("id", "invalid_id", "invalid identifier")
	}
	return &parsed, nil
}

func parsePeriodoQuery(c *gin.Context) (periodo.Periodo, error) {
	mes, err := strconv.Atoi(strings.TrimSpace(c.Query("mes")))
	if err != nil {
		return periodo.Periodo{}, newValidationError("mes", "invalid_mes", "invalid month")
	}
	anio, err := strconv.Atoi(strings.TrimSpace(c.Query("anio")))
	if err != nil {
		return periodo.Periodo{}, newValidationError("anio", "invalid_anio", "invalid year")
	}
	p := periodo.Periodo{Mes: mes, Anio: anio}
	if err := p.Validate(); err != nil {
		return periodo.Periodo{}, err
	}
	return p, nil
}
