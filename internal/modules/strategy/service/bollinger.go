package service

import (
	"fmt"

	"perp_bot/internal/models"
	"perp_bot/internal/modules/config"
	indicator "perp_bot/internal/modules/indicator/service"
)

// Bollinger: возврат к средней по %B.
// Вход: %B > upper -> шорт, %B < lower -> лонг.
// Выход: %B вернулся за 0 (лонг) / под 1 (шорт) или просадка ниже loss cut.
type Bollinger struct {
	cfg config.Bollinger
}

func NewBollinger(cfg config.Bollinger) *Bollinger {
	return &Bollinger{cfg: cfg}
}

func (s *Bollinger) Name() models.StrategyType { return models.StrategyBollinger }

func (s *Bollinger) Evaluate(in Input) models.Decision {
	if in.Position != nil {
		return s.exit(*in.Position, in.Window.Current.PercentB)
	}

	pb, ok := in.Window.Current.PercentB.Get()
	if !ok {
		return models.Hold("%B undefined")
	}
	switch {
	case pb > s.cfg.UpperEntry:
		return openDecision(models.SideShort, fmt.Sprintf("%%B %.3f > %.2f", pb, s.cfg.UpperEntry))
	case pb < s.cfg.LowerEntry:
		return openDecision(models.SideLong, fmt.Sprintf("%%B %.3f < %.2f", pb, s.cfg.LowerEntry))
	}
	return models.Hold(fmt.Sprintf("%%B %.3f inside", pb))
}

func (s *Bollinger) exit(pos models.Position, percentB indicator.Value) models.Decision {
	if pct, ok := pos.ProfitPercent(); ok && s.cfg.LossCutPct > 0 && pct <= -s.cfg.LossCutPct {
		return closeDecision(pos.Side, fmt.Sprintf("loss cut %.2f%%", pct), true)
	}
	pb, ok := percentB.Get()
	if !ok {
		return models.Hold("%B undefined")
	}
	switch {
	case pos.Side == models.SideLong && pb > 0:
		return closeDecision(pos.Side, fmt.Sprintf("%%B %.3f back above lower band", pb), false)
	case pos.Side == models.SideShort && pb < 1:
		return closeDecision(pos.Side, fmt.Sprintf("%%B %.3f back below upper band", pb), false)
	}
	return models.Hold("in position")
}

func (s *Bollinger) Dump(w indicator.Window) string {
	c := w.Current
	return fmt.Sprintf("close=%.2f band_b=%s mid=%s", c.Candle.Close, c.PercentB, c.BBMid)
}
