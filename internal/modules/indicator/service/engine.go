package service

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

type Config struct {
	RSIPeriod   int
	StochPeriod int
	KPeriod     int
	DPeriod     int
	EMAPeriod   int
	EMASeed     float64
	BBPeriod    int
	BBWidth     float64
	HASeedOpen  float64
	// Interval: шаг open_time, 0 отключает проверку дыр.
	Interval time.Duration
	// Keep: сколько последних снапшотов держим.
	Keep int
}

// Snapshot: производные значения одной закрытой свечи.
// RSI/StochRSI/EMA считаются по HA close, Боллинджер: по обычному close.
type Snapshot struct {
	Candle models.Candle
	HA     models.HACandle

	RSI      Value
	StochRSI Value
	StochK   Value
	StochD   Value
	EMA      Value

	BBMid    Value
	BBUpper  Value
	BBLower  Value
	PercentB Value
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s close=%.2f ha=%.2f/%.2f rsi=%s k=%s d=%s ema=%s %%b=%s",
		s.Candle.OpenTime.UTC().Format(time.RFC3339), s.Candle.Close, s.HA.Open, s.HA.Close,
		s.RSI, s.StochK, s.StochD, s.EMA, s.PercentB)
}

// Window содержит три последних снапшота (текущий, предыдущий и перед ним).
type Window struct {
	Current  Snapshot
	Previous Snapshot
	Before   Snapshot
}

type state struct {
	ha      haState
	ema     emaState
	rsi     rsiState
	stoch   stochState
	bb      bbState
	history *Ring[Snapshot]
}

func newState(cfg Config) *state {
	return &state{
		ha:      newHA(cfg.HASeedOpen),
		ema:     newEMA(cfg.EMAPeriod, cfg.EMASeed),
		rsi:     newRSI(cfg.RSIPeriod),
		stoch:   newStoch(cfg.StochPeriod, cfg.KPeriod, cfg.DPeriod),
		bb:      newBB(cfg.BBPeriod, cfg.BBWidth),
		history: NewRing[Snapshot](cfg.Keep),
	}
}

func (st *state) apply(c models.Candle) Snapshot {
	ha := st.ha.Update(c)
	rsi := st.rsi.Update(ha.Close)
	stoch := st.stoch.Update(rsi)
	bb := st.bb.Update(c.Close)

	snap := Snapshot{
		Candle:   c,
		HA:       ha,
		RSI:      rsi,
		StochRSI: stoch.Stoch,
		StochK:   stoch.K,
		StochD:   stoch.D,
		EMA:      st.ema.Update(ha.Close),
		BBMid:    bb.Mid,
		BBUpper:  bb.Upper,
		BBLower:  bb.Lower,
		PercentB: bb.PercentB,
	}
	st.history.Push(snap)
	return snap
}

func (st *state) last() (models.Candle, bool) {
	s, ok := st.history.Back(0)
	return s.Candle, ok
}

// Engine считает индикаторы в двух режимах, холодный старт по истории или по одной свече.
// Не потокобезопасен, им владеет один цикл.
type Engine struct {
	cfg Config
	st  *state
}

func NewEngine(cfg Config) *Engine {
	if cfg.Keep < 3 {
		cfg.Keep = 3
	}
	return &Engine{cfg: cfg, st: newState(cfg)}
}

// Bootstrap пересчитывает всё с нуля. При ошибке прежнее состояние не трогается.
func (e *Engine) Bootstrap(history []models.Candle) ([]Snapshot, error) {
	st := newState(e.cfg)
	out := make([]Snapshot, 0, len(history))
	for i, c := range history {
		if err := e.check(st, c); err != nil {
			return nil, errors.Wrapf(err, "bootstrap candle %d", i)
		}
		out = append(out, st.apply(c))
	}
	e.st = st
	return out, nil
}

// Update добавляет одну новую закрытую свечу.
func (e *Engine) Update(c models.Candle) (Snapshot, error) {
	if err := e.check(e.st, c); err != nil {
		return Snapshot{}, err
	}
	return e.st.apply(c), nil
}

func (e *Engine) check(st *state, c models.Candle) error {
	if !c.WellFormed() {
		return apperr.DataQuality("malformed candle at %s", c.OpenTime.UTC().Format(time.RFC3339))
	}
	last, ok := st.last()
	if !ok {
		return nil
	}
	if !c.OpenTime.After(last.OpenTime) {
		return apperr.DataQuality("open_time %s is not after %s",
			c.OpenTime.UTC().Format(time.RFC3339), last.OpenTime.UTC().Format(time.RFC3339))
	}
	if e.cfg.Interval > 0 && c.OpenTime.Sub(last.OpenTime) != e.cfg.Interval {
		return apperr.DataQuality("gap: %s after %s",
			c.OpenTime.UTC().Format(time.RFC3339), last.OpenTime.UTC().Format(time.RFC3339))
	}
	return nil
}

// LastOpenTime: open_time последней учтённой свечи.
func (e *Engine) LastOpenTime() (time.Time, bool) {
	c, ok := e.st.last()
	return c.OpenTime, ok
}

func (e *Engine) Last() (Snapshot, bool) { return e.st.history.Back(0) }

func (e *Engine) Len() int { return e.st.history.Len() }

// Window: false пока нет трёх свечей.
func (e *Engine) Window() (Window, bool) {
	cur, ok0 := e.st.history.Back(0)
	prev, ok1 := e.st.history.Back(1)
	before, ok2 := e.st.history.Back(2)
	if !ok0 || !ok1 || !ok2 {
		return Window{}, false
	}
	return Window{Current: cur, Previous: prev, Before: before}, true
}

// Snapshots: от старых к новым.
func (e *Engine) Snapshots() []Snapshot { return e.st.history.Values() }
