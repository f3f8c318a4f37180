package telegram

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"perp_bot/internal/modules/config"
	"perp_bot/internal/modules/telegram_bot/service"
	"perp_bot/internal/runner"
)

// newNotifier отдаёт stdout, если TELEGRAM_* не заданы или бот не поднялся.
func newNotifier(lc fx.Lifecycle, cfg *config.Config, board *runner.StatusBoard, log *zap.Logger) runner.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Warn("telegram not configured, notifications go to log")
		return service.NewStdout(log)
	}
	tg, err := service.NewTelegram(cfg, board, log)
	if err != nil {
		log.Error("telegram unavailable, notifications go to log", zap.Error(err))
		return service.NewStdout(log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tg.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			tg.Stop()
			return nil
		},
	})
	return tg
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(newNotifier),
	)
}
