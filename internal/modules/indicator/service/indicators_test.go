package service

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"perp_bot/internal/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func candle(i int, o, h, l, c float64) models.Candle {
	open := t0.Add(time.Duration(i) * time.Hour)
	return models.Candle{
		OpenTime:  open,
		CloseTime: open.Add(time.Hour - time.Millisecond),
		Open:      o, High: h, Low: l, Close: c,
		Volume: 1,
	}
}

func randomWalk(n int, seed int64) []models.Candle {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]models.Candle, 0, n)
	price := 2000.0
	for i := 0; i < n; i++ {
		o := price
		c := o * (1 + (rnd.Float64()-0.5)*0.02)
		h := max(o, c) * (1 + rnd.Float64()*0.005)
		l := min(o, c) * (1 - rnd.Float64()*0.005)
		out = append(out, candle(i, o, h, l, c))
		price = c
	}
	return out
}

func TestHeikinAshiFormulas(t *testing.T) {
	const seed = 1234.5
	h := newHA(seed)
	cs := randomWalk(50, 1)

	var prev models.HACandle
	for i, c := range cs {
		ha := h.Update(c)
		wantClose := (c.Open + c.High + c.Low + c.Close) / 4
		if ha.Close != wantClose {
			t.Fatalf("HA_close[%d] = %v, want %v", i, ha.Close, wantClose)
		}
		wantOpen := seed
		if i > 0 {
			wantOpen = (prev.Open + prev.Close) / 2
		}
		if ha.Open != wantOpen {
			t.Fatalf("HA_open[%d] = %v, want %v", i, ha.Open, wantOpen)
		}
		if ha.High != max(ha.Open, ha.Close, c.High) || ha.Low != min(ha.Open, ha.Close, c.Low) {
			t.Fatalf("HA high/low[%d] wrong: %+v", i, ha)
		}
		prev = ha
	}
}

func TestHeikinAshiUnseeded(t *testing.T) {
	h := newHA(0)
	ha := h.Update(candle(0, 10, 14, 8, 12))
	if ha.Open != 11 {
		t.Fatalf("HA_open[0] = %v, want (open+close)/2 = 11", ha.Open)
	}
}

func TestEMABoundedByInputs(t *testing.T) {
	e := newEMA(20, 0)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, c := range randomWalk(300, 2) {
		lo, hi = min(lo, c.Close), max(hi, c.Close)
		v, ok := e.Update(c.Close).Get()
		if i < 19 {
			if ok {
				t.Fatalf("ema defined at %d before warm-up", i)
			}
			continue
		}
		if !ok {
			t.Fatalf("ema undefined at %d", i)
		}
		if v < lo || v > hi {
			t.Fatalf("ema[%d]=%v outside [%v,%v]", i, v, lo, hi)
		}
	}
}

func TestEMASeedIsPreviousValue(t *testing.T) {
	e := newEMA(3, 100) // alpha = 0.5
	v, ok := e.Update(110).Get()
	if !ok || v != 105 {
		t.Fatalf("got %v,%v want 105", v, ok)
	}
}

func TestRSIWilder(t *testing.T) {
	r := newRSI(2)
	prices := []float64{1, 2, 1, 2}
	var last Value
	for i, p := range prices {
		last = r.Update(p)
		if i < 2 && last.OK() {
			t.Fatalf("rsi defined at %d", i)
		}
	}
	if v, _ := last.Get(); v != 75 {
		t.Fatalf("rsi = %v, want 75", v)
	}
}

func TestRSIEdgeCases(t *testing.T) {
	up := newRSI(3)
	flat := newRSI(3)
	var u, f Value
	for i := 0; i < 10; i++ {
		u = up.Update(float64(100 + i))
		f = flat.Update(100)
	}
	if v, _ := u.Get(); v != 100 {
		t.Errorf("only gains: rsi = %v, want 100", v)
	}
	if v, _ := f.Get(); v != 50 {
		t.Errorf("flat: rsi = %v, want 50", v)
	}
}

func TestOscillatorRanges(t *testing.T) {
	e := NewEngine(Config{
		RSIPeriod: 14, StochPeriod: 14, KPeriod: 3, DPeriod: 3,
		EMAPeriod: 50, BBPeriod: 20, BBWidth: 2, Interval: time.Hour, Keep: 10,
	})
	snaps, err := e.Bootstrap(randomWalk(1000, 3))
	if err != nil {
		t.Fatal(err)
	}
	var sawK, sawD bool
	for i, s := range snaps {
		if v, ok := s.RSI.Get(); ok && (v < 0 || v > 100) {
			t.Fatalf("rsi[%d] = %v", i, v)
		}
		for _, x := range []Value{s.StochRSI, s.StochK, s.StochD} {
			if v, ok := x.Get(); ok && (v < 0 || v > 1) {
				t.Fatalf("stoch[%d] = %v", i, v)
			}
		}
		sawK = sawK || s.StochK.OK()
		sawD = sawD || s.StochD.OK()
	}
	if !sawK || !sawD {
		t.Fatal("stoch K/D never warmed up")
	}
	// RSI: 14 изменений, stoch: 14 значений RSI, K: 3, D: 3
	if snaps[14+13+2+2-1].StochD.OK() {
		t.Fatal("D defined one bar too early")
	}
	if !snaps[14+13+2+2].StochD.OK() {
		t.Fatal("D undefined after warm-up")
	}
}

func TestStochFlatRSI(t *testing.T) {
	s := newStoch(5, 3, 3)
	var out stochOut
	for i := 0; i < 5+2+2; i++ {
		out = s.Update(Some(50))
		if v, ok := out.Stoch.Get(); ok && v != 0 {
			t.Fatalf("stoch[%d] = %v, want 0", i, v)
		}
	}
	for name, x := range map[string]Value{"stoch": out.Stoch, "k": out.K, "d": out.D} {
		v, ok := x.Get()
		if !ok {
			t.Fatalf("%s not warmed up", name)
		}
		if v != 0 {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestBollingerPercentB(t *testing.T) {
	b := newBB(3, 2)
	b.Update(1)
	b.Update(2)
	out := b.Update(3)
	if v, _ := out.Mid.Get(); v != 2 {
		t.Errorf("mid = %v", v)
	}
	if v, _ := out.Upper.Get(); v != 4 {
		t.Errorf("upper = %v", v)
	}
	if v, _ := out.PercentB.Get(); v != 0.75 {
		t.Errorf("%%b = %v", v)
	}

	flat := newBB(3, 2)
	for i := 0; i < 5; i++ {
		out = flat.Update(10)
	}
	if out.PercentB.OK() {
		t.Errorf("%%b must be undefined for zero band width")
	}
}

func TestEngineIncrementalMatchesBootstrap(t *testing.T) {
	cfg := Config{RSIPeriod: 14, StochPeriod: 14, KPeriod: 3, DPeriod: 3,
		EMAPeriod: 20, BBPeriod: 20, BBWidth: 2, Interval: time.Hour, Keep: 5}
	cs := randomWalk(120, 4)

	bulk := NewEngine(cfg)
	want, err := bulk.Bootstrap(cs)
	if err != nil {
		t.Fatal(err)
	}

	inc := NewEngine(cfg)
	if _, err := inc.Bootstrap(cs[:60]); err != nil {
		t.Fatal(err)
	}
	for _, c := range cs[60:] {
		if _, err := inc.Update(c); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := inc.Last()
	if got != want[len(want)-1] {
		t.Fatalf("incremental %v\n bootstrap %v", got, want[len(want)-1])
	}
	w, ok := inc.Window()
	if !ok || w.Before.Candle.OpenTime != cs[117].OpenTime {
		t.Fatalf("window = %+v", w)
	}
}

func TestEngineRejectsBadCandles(t *testing.T) {
	e := NewEngine(Config{RSIPeriod: 3, StochPeriod: 3, KPeriod: 1, DPeriod: 1,
		EMAPeriod: 3, BBPeriod: 3, BBWidth: 2, Interval: time.Hour})
	cs := randomWalk(5, 5)
	if _, err := e.Bootstrap(cs[:3]); err != nil {
		t.Fatal(err)
	}

	nan := cs[3]
	nan.Close = math.NaN()
	gap := cs[4]
	dup := cs[2]

	for name, c := range map[string]models.Candle{"nan": nan, "gap": gap, "duplicate": dup} {
		if _, err := e.Update(c); err == nil {
			t.Errorf("%s: expected data quality error", name)
		}
		if e.Len() != 3 {
			t.Fatalf("%s: state mutated, len=%d", name, e.Len())
		}
	}
	if _, err := e.Update(cs[3]); err != nil {
		t.Fatalf("valid candle rejected: %v", err)
	}
}

func TestBootstrapErrorKeepsState(t *testing.T) {
	e := NewEngine(Config{RSIPeriod: 3, StochPeriod: 3, KPeriod: 1, DPeriod: 1,
		EMAPeriod: 3, BBPeriod: 3, BBWidth: 2, Interval: time.Hour})
	cs := randomWalk(6, 6)
	if _, err := e.Bootstrap(cs[:4]); err != nil {
		t.Fatal(err)
	}
	broken := append([]models.Candle{}, cs[0], cs[2])
	if _, err := e.Bootstrap(broken); err == nil {
		t.Fatal("expected gap error")
	}
	if ot, _ := e.LastOpenTime(); !ot.Equal(cs[3].OpenTime) {
		t.Fatalf("last open time = %v", ot)
	}
}
