package strategy

import (
	"go.uber.org/fx"

	"perp_bot/internal/modules/strategy/service"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewEngine, // service.Engine по cfg.Strategy
		),
	)
}
