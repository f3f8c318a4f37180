package service

import (
	"testing"

	"perp_bot/internal/models"
	"perp_bot/internal/modules/config"
	indicator "perp_bot/internal/modules/indicator/service"
)

func haSnap(open, high, low, close, ema, k, d float64) indicator.Snapshot {
	return indicator.Snapshot{
		HA:     models.HACandle{Open: open, High: high, Low: low, Close: close},
		EMA:    indicator.Some(ema),
		StochK: indicator.Some(k),
		StochD: indicator.Some(d),
	}
}

func newHA() *HeikinAshi {
	return NewHeikinAshi(config.Default().HeikinAshi, ProfitExit{TakeProfitPct: 3, StopLossPct: 1.5})
}

func longWindow() indicator.Window {
	return indicator.Window{
		Before:   haSnap(2040, 2046, 2035, 2044, 2000, 0.10, 0.12),
		Previous: haSnap(2045, 2052, 2041, 2050, 2000, 0.15, 0.12),
		Current:  haSnap(2040, 2065, 2040, 2060, 2000, 0.25, 0.16),
	}
}

func shortWindow() indicator.Window {
	return indicator.Window{
		Before:   haSnap(1958, 1962, 1950, 1956, 2000, 0.90, 0.88),
		Previous: haSnap(1955, 1958, 1948, 1950, 2000, 0.85, 0.88),
		Current:  haSnap(1960, 1960, 1935, 1940, 2000, 0.80, 0.85),
	}
}

func TestHeikinAshiEntries(t *testing.T) {
	s := newHA()

	wick := longWindow()
	wick.Current.HA.Low = 2035

	outOfBand := longWindow()
	outOfBand.Previous.HA.Close = 2150

	noCross := longWindow()
	noCross.Before.StochK = indicator.Some(0.13)

	warmingUp := longWindow()
	warmingUp.Before.StochD = indicator.None

	cases := []struct {
		name   string
		in     Input
		action models.Action
		side   models.Side
	}{
		{"long confirmed", Input{Window: longWindow()}, models.ActionOpenLong, models.SideLong},
		{"short confirmed", Input{Window: shortWindow()}, models.ActionOpenShort, models.SideShort},
		{"long with lower wick monitors", Input{Window: wick}, models.ActionMonitor, models.SideLong},
		{"close too far from ema", Input{Window: outOfBand}, models.ActionHold, models.SideNone},
		{"no golden cross", Input{Window: noCross}, models.ActionHold, models.SideNone},
		{"stoch undefined", Input{Window: warmingUp}, models.ActionHold, models.SideNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := s.Evaluate(tc.in)
			if d.Action != tc.action || d.Side != tc.side {
				t.Fatalf("got %s/%s (%s), want %s/%s", d.Action, d.Side, d.Reason, tc.action, tc.side)
			}
		})
	}
}

func TestHeikinAshiMonitoring(t *testing.T) {
	s := newHA()

	// подтверждение пришло на следующей свече, сетап уже не обязателен
	w := longWindow()
	w.Before.StochK = indicator.Some(0.5)
	if d := s.Evaluate(Input{Window: w, Monitoring: models.SideLong}); d.Action != models.ActionOpenLong {
		t.Fatalf("got %s, want open long", d.Action)
	}

	pending := longWindow()
	pending.Current.HA.Close = 2042 // тело меньше предыдущего
	if d := s.Evaluate(Input{Window: pending, Monitoring: models.SideLong}); d.Action != models.ActionMonitor {
		t.Fatalf("got %s, want monitor", d.Action)
	}

	broken := longWindow()
	broken.Previous.HA.Close = 1990
	if d := s.Evaluate(Input{Window: broken, Monitoring: models.SideLong}); d.Action != models.ActionHold {
		t.Fatalf("got %s, want hold", d.Action)
	}
}

func TestHeikinAshiExitByProfit(t *testing.T) {
	s := newHA()
	cases := []struct {
		name   string
		pos    models.Position
		action models.Action
		urgent bool
	}{
		{"long take profit at 3%", models.Position{Side: models.SideLong, UnrealizedPnL: 30, IsolatedWallet: 1000}, models.ActionCloseLong, false},
		{"long stop loss", models.Position{Side: models.SideLong, UnrealizedPnL: -15, IsolatedWallet: 1000}, models.ActionCloseLong, true},
		{"short take profit", models.Position{Side: models.SideShort, UnrealizedPnL: 45, IsolatedWallet: 1000}, models.ActionCloseShort, false},
		{"short small loss holds", models.Position{Side: models.SideShort, UnrealizedPnL: -10, IsolatedWallet: 1000}, models.ActionHold, false},
		{"empty wallet holds", models.Position{Side: models.SideLong, UnrealizedPnL: 30}, models.ActionHold, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := tc.pos
			// окно с сетапом на вход: выход всё равно приоритетнее
			d := s.Evaluate(Input{Window: longWindow(), Position: &pos})
			if d.Action != tc.action || d.Urgent != tc.urgent {
				t.Fatalf("got %s urgent=%v (%s)", d.Action, d.Urgent, d.Reason)
			}
		})
	}
}

func bbWindow(pb indicator.Value) indicator.Window {
	return indicator.Window{Current: indicator.Snapshot{PercentB: pb}}
}

func TestBollinger(t *testing.T) {
	s := NewBollinger(config.Default().Bollinger)
	long := &models.Position{Side: models.SideLong, IsolatedWallet: 1000}
	short := &models.Position{Side: models.SideShort, IsolatedWallet: 1000}
	deepShort := &models.Position{Side: models.SideShort, UnrealizedPnL: -20, IsolatedWallet: 1000}

	cases := []struct {
		name   string
		pb     indicator.Value
		pos    *models.Position
		action models.Action
		urgent bool
	}{
		{"above upper opens short", indicator.Some(1.35), nil, models.ActionOpenShort, false},
		{"below lower opens long", indicator.Some(-0.35), nil, models.ActionOpenLong, false},
		{"inside holds", indicator.Some(0.5), nil, models.ActionHold, false},
		{"undefined holds", indicator.None, nil, models.ActionHold, false},
		{"long closes above 0", indicator.Some(0.1), long, models.ActionCloseLong, false},
		{"long still below 0", indicator.Some(-0.1), long, models.ActionHold, false},
		{"short closes below 1", indicator.Some(0.9), short, models.ActionCloseShort, false},
		{"short above 1 does not reopen", indicator.Some(1.35), short, models.ActionHold, false},
		{"loss cut", indicator.Some(1.4), deepShort, models.ActionCloseShort, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := s.Evaluate(Input{Window: bbWindow(tc.pb), Position: tc.pos})
			if d.Action != tc.action || d.Urgent != tc.urgent {
				t.Fatalf("got %s urgent=%v (%s), want %s", d.Action, d.Urgent, d.Reason, tc.action)
			}
		})
	}
}

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy = models.StrategyBollinger
	e, err := NewEngine(&cfg)
	if err != nil || e.Name() != models.StrategyBollinger {
		t.Fatalf("got %v, %v", e, err)
	}
	cfg.Strategy = "martingale"
	if _, err := NewEngine(&cfg); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
