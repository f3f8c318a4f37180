package service

// rsiState: RSI со сглаживанием Уайлдера.
// Первые period изменений: простое среднее, дальше avg = (avg*(n-1) + x) / n.
type rsiState struct {
	period  int
	prev    float64
	hasPrev bool
	n       int
	avgGain float64
	avgLoss float64
	ready   bool
}

func newRSI(period int) rsiState {
	if period < 1 {
		period = 1
	}
	return rsiState{period: period}
}

func (r *rsiState) Update(price float64) Value {
	if !r.hasPrev {
		r.prev, r.hasPrev = price, true
		return None
	}
	change := price - r.prev
	r.prev = price
	gain, loss := max(change, 0), max(-change, 0)

	p := float64(r.period)
	if !r.ready {
		r.avgGain += gain
		r.avgLoss += loss
		r.n++
		if r.n < r.period {
			return None
		}
		r.avgGain /= p
		r.avgLoss /= p
		r.ready = true
	} else {
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}
	return Some(rsiFromAverages(r.avgGain, r.avgLoss))
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			// цена стояла весь период
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
