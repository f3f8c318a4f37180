package service

// stochState: Stochastic RSI в [0,1], K = SMA(stoch, k), D = SMA(K, d).
type stochState struct {
	rsi *Ring[float64]
	raw *Ring[float64]
	k   *Ring[float64]
}

type stochOut struct {
	Stoch, K, D Value
}

func newStoch(period, kPeriod, dPeriod int) stochState {
	return stochState{
		rsi: NewRing[float64](period),
		raw: NewRing[float64](kPeriod),
		k:   NewRing[float64](dPeriod),
	}
}

func (s *stochState) Update(rsi Value) stochOut {
	v, ok := rsi.Get()
	if !ok {
		return stochOut{}
	}
	s.rsi.Push(v)
	if !s.rsi.Full() {
		return stochOut{}
	}

	lo, hi := minMax(s.rsi)
	stoch := 0.0
	if hi > lo {
		stoch = clamp01((v - lo) / (hi - lo))
	}
	out := stochOut{Stoch: Some(stoch)}

	s.raw.Push(stoch)
	if !s.raw.Full() {
		return out
	}
	k := clamp01(mean(s.raw))
	out.K = Some(k)

	s.k.Push(k)
	if !s.k.Full() {
		return out
	}
	out.D = Some(clamp01(mean(s.k)))
	return out
}

func minMax(r *Ring[float64]) (lo, hi float64) {
	for i := 0; i < r.Len(); i++ {
		v, _ := r.Back(i)
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}

func mean(r *Ring[float64]) float64 {
	if r.Len() == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < r.Len(); i++ {
		v, _ := r.Back(i)
		sum += v
	}
	return sum / float64(r.Len())
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
