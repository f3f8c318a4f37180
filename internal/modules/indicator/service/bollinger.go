package service

import "math"

// bbState считает полосы Боллинджера по close. SMA(n) ± width * stdev(n), stdev выборочное (n-1).
type bbState struct {
	width  float64
	window *Ring[float64]
}

type bbOut struct {
	Mid, Upper, Lower, PercentB Value
}

func newBB(period int, width float64) bbState {
	if period < 2 {
		period = 2
	}
	return bbState{width: width, window: NewRing[float64](period)}
}

func (b *bbState) Update(price float64) bbOut {
	b.window.Push(price)
	if !b.window.Full() {
		return bbOut{}
	}

	m := mean(b.window)
	ss := 0.0
	for i := 0; i < b.window.Len(); i++ {
		v, _ := b.window.Back(i)
		ss += (v - m) * (v - m)
	}
	sd := math.Sqrt(ss / float64(b.window.Len()-1))

	upper, lower := m+b.width*sd, m-b.width*sd
	out := bbOut{Mid: Some(m), Upper: Some(upper), Lower: Some(lower)}
	// нулевая ширина: %B не определён
	if upper > lower {
		out.PercentB = Some((price - lower) / (upper - lower))
	}
	return out
}
