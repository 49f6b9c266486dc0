package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// PricingConfig holds the tunable parameters of the dues computation pipeline.
type PricingConfig struct {
	// TopeDescuentoPorcentaje caps the combined category + rule discount as a
	// percentage of the base amount.
	TopeDescuentoPorcentaje float64 `mapstructure:"topeDescuentoPorcentaje"`
	// TechoCalculo is the sanity ceiling for a computed total. Crossing it is
	// treated as a data-integrity error, never clamped.
	TechoCalculo float64 `mapstructure:"techoCalculo"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TopeDescuentoPorcentaje: 100,
		TechoCalculo:            10_000_000,
	}
}

func (c PricingConfig) TopeDescuento() decimal.Decimal {
	return decimal.NewFromFloat(c.TopeDescuentoPorcentaje)
}

func (c PricingConfig) Techo() decimal.Decimal {
	return decimal.NewFromFloat(c.TechoCalculo)
}

// PricingConfigHolder exposes the current pricing parameters and hot-reloads
// them when the backing file changes.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/sigesda")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SIGESDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.topeDescuentoPorcentaje", defaults.TopeDescuentoPorcentaje)
	v.SetDefault("pricing.techoCalculo", defaults.TechoCalculo)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	holder := &PricingConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("pricing config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PricingConfigHolder) reload(v *viper.Viper) error {
	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return err
	}
	if cfg.TopeDescuentoPorcentaje <= 0 || cfg.TopeDescuentoPorcentaje > 100 {
		cfg.TopeDescuentoPorcentaje = DefaultPricingConfig().TopeDescuentoPorcentaje
	}
	if cfg.TechoCalculo <= 0 {
		cfg.TechoCalculo = DefaultPricingConfig().TechoCalculo
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the active pricing configuration.
func (h *PricingConfigHolder) Current() PricingConfig {
	if v, ok := h.current.Load().(PricingConfig); ok {
		return v
	}
	return DefaultPricingConfig()
}

// NewStaticPricingConfigHolder builds a holder with a fixed config, for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	h := &PricingConfigHolder{}
	h.current.Store(cfg)
	return h
}
