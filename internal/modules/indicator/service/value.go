package service

import "strconv"

// Value: значение индикатора или его отсутствие (прогрев не закончен).
// Нулевое значение: «не определено», числового дефолта нет.
type Value struct {
	v  float64
	ok bool
}

func Some(v float64) Value { return Value{v: v, ok: true} }

var None = Value{}

func (x Value) Get() (float64, bool) { return x.v, x.ok }
func (x Value) OK() bool             { return x.ok }

func (x Value) String() string {
	if !x.ok {
		return "n/a"
	}
	return strconv.FormatFloat(x.v, 'f', 4, 64)
}
