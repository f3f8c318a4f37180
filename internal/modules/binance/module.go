package binance

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"perp_bot/internal/modules/binance/service"
	"perp_bot/internal/modules/config"
	health "perp_bot/internal/modules/health/service"
)

func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			service.NewTickerCache,
			service.NewClient,
		),
		fx.Invoke(runTickerStream),
	)
}

// runTickerStream: опциональный стрим bid/ask в кэш.
func runTickerStream(lc fx.Lifecycle, cfg *config.Config, c *service.Client, st *health.State, log *zap.Logger) {
	if !cfg.Binance.TickerStream {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				c.StreamBookTicker(ctx, cfg.Symbol, st.SetWSConnected)
			}()
			log.Info("book ticker stream started", zap.String("symbol", cfg.Symbol))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
