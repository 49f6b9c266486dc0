// Package metrics exposes application-level Prometheus instruments for the
// pricing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

type Metrics struct {
	registry *prometheus.Registry

	computosCuota    *prometheus.CounterVec
	filasMasivo      *prometheus.CounterVec
	rollbackAcciones *prometheus.CounterVec
	loteMasivoFilas  prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		computosCuota: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigesda_cuota_computos_total",
			Help: "Dues computations run, by result.",
		}, []string{"resultado"}),
		filasMasivo: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigesda_operacion_masiva_filas_total",
			Help: "Mass operation rows processed, by outcome.",
		}, []string{"resultado"}),
		rollbackAcciones: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigesda_rollback_acciones_total",
			Help: "Rollback destructive actions, by outcome.",
		}, []string{"resultado"}),
		loteMasivoFilas: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigesda_operacion_masiva_lote_filas",
			Help:    "Target rows per mass operation batch.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	registry.MustRegister(m.computosCuota, m.filasMasivo, m.rollbackAcciones, m.loteMasivoFilas)
	return m
}

// Registry returns the registry the HTTP layer serves via promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncComputoCuota(resultado string) {
	if m == nil {
		return
	}
	m.computosCuota.WithLabelValues(resultado).Inc()
}

func (m *Metrics) IncFilaMasivo(resultado string) {
	if m == nil {
		return
	}
	m.filasMasivo.WithLabelValues(resultado).Inc()
}

func (m *Metrics) IncRollbackAccion(resultado string) {
	if m == nil {
		return
	}
	m.rollbackAcciones.WithLabelValues(resultado).Inc()
}

func (m *Metrics) ObserveLoteMasivo(filas int) {
	if m == nil {
		return
	}
	m.loteMasivoFilas.Observe(float64(filas))
}

// Module wires the metrics instruments.
var Module = fx.Module("metrics",
	fx.Provide(New),
)
