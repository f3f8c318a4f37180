package config

import "go.uber.org/fx"

// Module отдаёт *Config, неизменяемый на всё время жизни процесса.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
	)
}
