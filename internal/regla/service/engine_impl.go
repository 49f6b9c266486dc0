package service

import (
	"context"

	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/regla/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdvertenciaTopeDescuento is emitted when the combined discount had to be
// clamped to the configured ceiling.
const AdvertenciaTopeDescuento = "tope_descuento_aplicado"

type EngineParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	PricingCfg *config.PricingConfigHolder
}

type Engine struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	pricingCfg *config.PricingConfigHolder
}

func NewEngine(p EngineParam) domain.Engine {
	return &Engine{
		db:         p.DB,
		log:        p.Log.Named("regla.engine"),
		repo:       p.Repo,
		pricingCfg: p.PricingCfg,
	}
}

// Evaluar runs every active rule whose predicate matches, in ascending
// priority-then-id order. Each match contributes one discount computed
// against the original base amount. The combined category + rule discount is
// then clamped to the configured ceiling percentage of the base.
func (e *Engine) Evaluar(ctx context.Context, c domain.Contexto) (domain.Resultado, error) {
	reglas, err := e.repo.ListActivas(ctx, e.db)
	if err != nil {
		return domain.Resultado{}, err
	}

	var descuentos []domain.Descuento
	for _, regla := range reglas {
		if !regla.Matches(c) {
			continue
		}
		monto := montoEfecto(regla, c.MontoBase)
		if monto.Sign() <= 0 {
			continue
		}
		descuentos = append(descuentos, domain.Descuento{Regla: regla, Monto: monto})
	}

	resultado := domain.Resultado{Descuentos: descuentos}
	tope := e.pricingCfg.Current().TopeDescuento()
	resultado = clampTope(resultado, c, tope)

	if len(resultado.Advertencias) > 0 {
		e.log.Warn("descuento combinado recortado al tope",
			zap.String("socio_id", c.Socio.ID.String()),
			zap.String("periodo", c.Periodo.String()),
			zap.String("tope_porcentaje", tope.String()),
		)
	}
	return resultado, nil
}

func montoEfecto(regla domain.ReglaDescuento, base decimal.Decimal) decimal.Decimal {
	switch regla.TipoEfecto {
	case domain.EfectoPorcentaje:
		return base.Mul(regla.Valor).Div(decimal.NewFromInt(100)).Round(2)
	case domain.EfectoMontoFijo:
		return regla.Valor.Round(2)
	default:
		return decimal.Zero
	}
}

// clampTope caps the combined category + rule discount at tope% of the base.
// The excess is removed from the lowest-priority rules first, so the
// highest-priority discounts survive intact.
func clampTope(r domain.Resultado, c domain.Contexto, tope decimal.Decimal) domain.Resultado {
	permitido := c.MontoBase.Mul(tope).Div(decimal.NewFromInt(100)).Round(2)

	total := c.DescuentoCategoria
	for _, d := range r.Descuentos {
		total = total.Add(d.Monto)
	}
	if total.LessThanOrEqual(permitido) {
		return r
	}

	exceso := total.Sub(permitido)
	for i := len(r.Descuentos) - 1; i >= 0 && exceso.Sign() > 0; i-- {
		recorte := decimal.Min(exceso, r.Descuentos[i].Monto)
		r.Descuentos[i].Monto = r.Descuentos[i].Monto.Sub(recorte)
		exceso = exceso.Sub(recorte)
	}

	recortados := r.Descuentos[:0]
	for _, d := range r.Descuentos {
		if d.Monto.Sign() > 0 {
			recortados = append(recortados, d)
		}
	}
	r.Descuentos = recortados
	r.Advertencias = append(r.Advertencias, AdvertenciaTopeDescuento)
	return r
}
