package indicator

import (
	"go.uber.org/fx"

	"perp_bot/internal/helper"
	"perp_bot/internal/modules/config"
	"perp_bot/internal/modules/indicator/service"
)

func NewEngine(cfg *config.Config) *service.Engine {
	interval, _ := helper.IntervalDuration(cfg.Interval)
	ic := cfg.Indicators
	return service.NewEngine(service.Config{
		RSIPeriod:   ic.RSIPeriod,
		StochPeriod: ic.StochPeriod,
		KPeriod:     ic.KPeriod,
		DPeriod:     ic.DPeriod,
		EMAPeriod:   ic.EMAPeriod,
		EMASeed:     ic.EMASeed,
		BBPeriod:    ic.BBPeriod,
		BBWidth:     ic.BBWidth,
		HASeedOpen:  ic.HASeedOpen,
		Interval:    interval,
		Keep:        64,
	})
}

func Module() fx.Option {
	return fx.Module("indicator",
		fx.Provide(NewEngine),
	)
}
