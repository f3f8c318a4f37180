package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	binance "perp_bot/internal/modules/binance/service"
	"perp_bot/internal/modules/config"
	health "perp_bot/internal/modules/health/service"
	indicator "perp_bot/internal/modules/indicator/service"
	strategy "perp_bot/internal/modules/strategy/service"
)

func newRunner(
	cfg *config.Config,
	gw Gateway,
	n Notifier,
	engine *indicator.Engine,
	stg strategy.Engine,
	board *StatusBoard,
	hs *health.State,
	log *zap.Logger,
) *Runner {
	return New(Params{
		Config:   cfg,
		Gateway:  gw,
		Notifier: n,
		Engine:   engine,
		Strategy: stg,
		Board:    board,
		Health:   hs,
		Logger:   log,
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewStatusBoard,
			func(c *binance.Client) Gateway { return c },
			newRunner,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					if err := r.Init(startCtx); err != nil {
						cancel()
						return err
					}
					go func() {
						defer close(done)
						r.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					r.stop(stopCtx, cancel, done)
					return nil
				},
			})
		}),
	)
}

// stop гасит цикл и ждёт текущий тик. State читается только после выхода цикла.
func (r *Runner) stop(ctx context.Context, cancel context.CancelFunc, done <-chan struct{}) {
	cancel()
	select {
	case <-done:
		r.Shutdown(ctx)
	case <-ctx.Done():
		r.log.Warn("runner stop timed out, tick still running")
	}
}
