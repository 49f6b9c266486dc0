package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	cuotaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/service"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/preview/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	CuotaSvc   cuotadomain.Service
	CuotaRepo  cuotadomain.Repository
	AjusteRepo ajustedomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	cuotaSvc   cuotadomain.Service
	cuotaRepo  cuotadomain.Repository
	ajusteRepo ajustedomain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("preview.service"),
		cuotaSvc:   p.CuotaSvc,
		cuotaRepo:  p.CuotaRepo,
		ajusteRepo: p.AjusteRepo,
	}
}

// Previsualizar re-runs the pipeline without persisting. Given an existing
// due it loads the stored inputs but leaves the row untouched.
func (s *Service) Previsualizar(ctx context.Context, req domain.PreviewRequest) (cuotadomain.Resultado, error) {
	if err := req.Validate(); err != nil {
		return cuotadomain.Resultado{}, err
	}

	if req.Simulacion != nil {
		return s.cuotaSvc.Calcular(ctx, *req.Simulacion)
	}

	calcReq, err := s.requestParaCuota(ctx, *req.CuotaID)
	if err != nil {
		return cuotadomain.Resultado{}, err
	}
	return s.cuotaSvc.Calcular(ctx, calcReq)
}

// Comparar runs the pipeline twice, once with current inputs and once with
// the proposal layered in, and returns the structural diff. It never writes.
func (s *Service) Comparar(ctx context.Context, cuotaID snowflake.ID, propuesta domain.Propuesta) (domain.Comparacion, error) {
	calcReq, err := s.requestParaCuota(ctx, cuotaID)
	if err != nil {
		return domain.Comparacion{}, err
	}

	antes, err := s.cuotaSvc.Calcular(ctx, calcReq)
	if err != nil {
		return domain.Comparacion{}, err
	}

	propReq := calcReq
	propReq.Ajustes = append(append([]ajustedomain.Ajuste{}, calcReq.Ajustes...), propuesta.AjustesExtra...)
	propReq.ExencionOverride = propuesta.ExencionOverride

	despues, err := s.cuotaSvc.Calcular(ctx, propReq)
	if err != nil {
		return domain.Comparacion{}, err
	}

	return diff(antes, despues), nil
}

func (s *Service) requestParaCuota(ctx context.Context, cuotaID snowflake.ID) (cuotadomain.CalcularRequest, error) {
	cuota, err := s.cuotaRepo.FindByID(ctx, s.db, cuotaID)
	if err != nil {
		return cuotadomain.CalcularRequest{}, err
	}
	ajustes, err := s.ajusteRepo.ListForCuota(ctx, s.db, cuotaID)
	if err != nil {
		return cuotadomain.CalcularRequest{}, err
	}
	return cuotaservice.RequestParaCuota(cuota, ajustes), nil
}

// diff aligns items of both results by kind and concept. Items present on
// one side only diff against zero.
func diff(antes, despues cuotadomain.Resultado) domain.Comparacion {
	type clave struct {
		tipo     string
		concepto string
	}

	montos := func(r cuotadomain.Resultado) (map[clave]decimal.Decimal, []clave) {
		porClave := make(map[clave]decimal.Decimal, len(r.Items))
		var orden []clave
		for _, item := range r.Items {
			k := clave{tipo: item.Tipo, concepto: item.Concepto}
			if _, visto := porClave[k]; !visto {
				orden = append(orden, k)
			}
			porClave[k] = porClave[k].Add(item.Monto)
		}
		return porClave, orden
	}

	antesPorClave, orden := montos(antes)
	despuesPorClave, ordenDespues := montos(despues)
	for _, k := range ordenDespues {
		if _, visto := antesPorClave[k]; !visto {
			orden = append(orden, k)
		}
	}

	comparacion := domain.Comparacion{
		Antes:      antes,
		Despues:    despues,
		DeltaTotal: despues.Total.Sub(antes.Total),
	}
	for _, k := range orden {
		a := antesPorClave[k]
		d := despuesPorClave[k]
		delta := d.Sub(a)
		if delta.IsZero() {
			continue
		}
		comparacion.Deltas = append(comparacion.Deltas, domain.DeltaItem{
			Tipo:     k.tipo,
			Concepto: k.concepto,
			Antes:    a,
			Despues:  d,
			Delta:    delta,
		})
		comparacion.Explicacion = append(comparacion.Explicacion,
			k.concepto+": "+a.StringFixed(2)+" -> "+d.StringFixed(2))
	}
	return comparacion
}
