package service

import (
	"perp_bot/internal/models"
	"perp_bot/internal/modules/config"
	"perp_bot/pkg/apperr"
)

func NewEngine(cfg *config.Config) (Engine, error) {
	exit := ProfitExit{
		TakeProfitPct: cfg.Trading.TakeProfitPct,
		StopLossPct:   cfg.Trading.StopLossPct,
	}
	switch cfg.Strategy {
	case models.StrategyHeikinAshi:
		return NewHeikinAshi(cfg.HeikinAshi, exit), nil
	case models.StrategyBollinger:
		return NewBollinger(cfg.Bollinger), nil
	default:
		return nil, apperr.Configuration("unknown strategy %q", cfg.Strategy)
	}
}
