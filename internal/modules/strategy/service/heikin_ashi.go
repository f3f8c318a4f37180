package service

import (
	"fmt"

	"perp_bot/internal/models"
	"perp_bot/internal/modules/config"
	indicator "perp_bot/internal/modules/indicator/service"
)

// HeikinAshi это трендовая стратегия. Условия: HA close у EMA, пересечение StochRSI K/D
// в зоне перепроданности/перекупленности и подтверждение формой свечи.
type HeikinAshi struct {
	cfg  config.HeikinAshi
	exit ProfitExit
}

func NewHeikinAshi(cfg config.HeikinAshi, exit ProfitExit) *HeikinAshi {
	return &HeikinAshi{cfg: cfg, exit: exit}
}

func (s *HeikinAshi) Name() models.StrategyType { return models.StrategyHeikinAshi }

func (s *HeikinAshi) Evaluate(in Input) models.Decision {
	// выход важнее входа
	if in.Position != nil {
		if d, ok := s.exit.Check(*in.Position); ok {
			return d
		}
		return models.Hold("in position")
	}

	w := in.Window
	if in.Monitoring != models.SideNone {
		side := in.Monitoring
		if !s.trendHolds(side, w.Previous) {
			return models.Hold(fmt.Sprintf("%s monitoring dropped: trend broken", side))
		}
		if s.confirmed(side, w) {
			return openDecision(side, "confirmation candle")
		}
		return monitorDecision(side, "waiting for confirmation")
	}

	for _, side := range []models.Side{models.SideLong, models.SideShort} {
		if !s.setup(side, w) {
			continue
		}
		if s.confirmed(side, w) {
			return openDecision(side, "stoch cross + confirmation")
		}
		return monitorDecision(side, "stoch cross, no confirmation yet")
	}
	return models.Hold("no setup")
}

// trendHolds: HA close по нужную сторону EMA и не дальше band%.
func (s *HeikinAshi) trendHolds(side models.Side, snap indicator.Snapshot) bool {
	ema, ok := snap.EMA.Get()
	if !ok {
		return false
	}
	c := snap.HA.Close
	band := s.cfg.EMABandPct / 100
	if side == models.SideLong {
		return c > ema && c < ema*(1+band)
	}
	return c < ema && c > ema*(1-band)
}

// setup проверяется на предыдущей закрытой свече: K/D в зоне и пересечение
// между «перед ней» и ней.
func (s *HeikinAshi) setup(side models.Side, w indicator.Window) bool {
	if !s.trendHolds(side, w.Previous) {
		return false
	}
	k1, ok1 := w.Previous.StochK.Get()
	d1, ok2 := w.Previous.StochD.Get()
	k2, ok3 := w.Before.StochK.Get()
	d2, ok4 := w.Before.StochD.Get()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	k1, d1 = k1*100, d1*100

	if side == models.SideLong {
		return k1 < s.cfg.Oversold && d1 < s.cfg.Oversold && k1 > d1 && k2 <= d2
	}
	return k1 > s.cfg.Overbought && d1 > s.cfg.Overbought && k1 < d1 && k2 >= d2
}

// confirmed: текущая HA свеча без тени против направления и с телом больше предыдущего.
func (s *HeikinAshi) confirmed(side models.Side, w indicator.Window) bool {
	cur, prev := w.Current.HA, w.Previous.HA
	if side == models.SideLong {
		return cur.Close > cur.Open && cur.NoLowerWick() && cur.Close-cur.Open > prev.Close-prev.Open
	}
	return cur.Close < cur.Open && cur.NoUpperWick() && cur.Open-cur.Close > prev.Open-prev.Close
}

func (s *HeikinAshi) Dump(w indicator.Window) string {
	c := w.Current
	return fmt.Sprintf("ha_close=%.2f ema=%s k=%s d=%s", c.HA.Close, c.EMA, c.StochK, c.StochD)
}
