package server

import (
	"context"
	"net/http"
	"time"

	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	masivodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/masivo/domain"
	obsmetrics "github.com/fgonzalez-GIT/sigesda-backend/internal/observability/metrics"
	previewdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/preview/domain"
	rollbackdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	cuotaSvc      cuotadomain.Service
	categoriaSvc  categoriadomain.Service
	ajusteSvc     ajustedomain.Service
	exencionSvc   exenciondomain.Service
	previewSvc    previewdomain.Service
	masivoSvc     masivodomain.Service
	rollbackSvc   rollbackdomain.Service
	historialRepo historialdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	CuotaSvc      cuotadomain.Service
	CategoriaSvc  categoriadomain.Service
	AjusteSvc     ajustedomain.Service
	ExencionSvc   exenciondomain.Service
	PreviewSvc    previewdomain.Service
	MasivoSvc     masivodomain.Service
	RollbackSvc   rollbackdomain.Service
	HistorialRepo historialdomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		cuotaSvc:      p.CuotaSvc,
		categoriaSvc:  p.CategoriaSvc,
		ajusteSvc:     p.AjusteSvc,
		exencionSvc:   p.ExencionSvc,
		previewSvc:    p.PreviewSvc,
		masivoSvc:     p.MasivoSvc,
		rollbackSvc:   p.RollbackSvc,
		historialRepo: p.HistorialRepo,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/cuotas/calcular", s.CalcularCuota)
	api.POST("/cuotas/generar", s.GenerarCuota)
	api.GET("/cuotas", s.ListCuotas)
	api.GET("/cuotas/:id", s.GetCuota)
	api.GET("/cuotas/:id/historial", s.GetCuotaHistorial)
	api.POST("/cuotas/:id/ajustes", s.RegistrarAjuste)
	api.GET("/cuotas/:id/ajustes", s.ListAjustesCuota)

	api.POST("/preview", s.Previsualizar)
	api.POST("/cuotas/:id/diff", s.CompararCuota)

	api.POST("/exenciones", s.CrearExencion)
	api.GET("/exenciones/:id", s.GetExencion)
	api.POST("/exenciones/:id/aprobar", s.AprobarExencion)
	api.POST("/exenciones/:id/rechazar", s.RechazarExencion)
	api.POST("/exenciones/:id/revocar", s.RevocarExencion)
	api.GET("/socios/:id/exenciones", s.ListExencionesSocio)

	api.POST("/operaciones/masivas", s.EjecutarOperacionMasiva)
	api.POST("/operaciones/reconciliar-exenciones", s.ReconciliarExenciones)

	api.GET("/rollback/validar", s.ValidarRollback)
	api.POST("/rollback", s.EjecutarRollback)

	api.GET("/categorias/:id/tarifa", s.ResolverTarifa)
}
