package service

// emaState: ema[i] = price*alpha + ema[i-1]*(1-alpha), alpha = 2/(period+1).
// Без сида первое значение: SMA первых period цен, с сидом сид считается ema[-1].
type emaState struct {
	period int
	alpha  float64
	value  float64
	sum    float64
	warmup int
	ready  bool
}

func newEMA(period int, seed float64) emaState {
	if period <= 1 {
		period = 1
	}
	e := emaState{
		period: period,
		alpha:  2.0 / (float64(period) + 1),
	}
	if seed > 0 {
		e.value, e.ready = seed, true
	}
	return e
}

func (e *emaState) Update(price float64) Value {
	if e.ready {
		e.value = e.alpha*price + (1-e.alpha)*e.value
		return Some(e.value)
	}
	e.sum += price
	e.warmup++
	if e.warmup < e.period {
		return None
	}
	e.value = e.sum / float64(e.period)
	e.ready = true
	return Some(e.value)
}

func (e *emaState) Ready() bool { return e.ready }
