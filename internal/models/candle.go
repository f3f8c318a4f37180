package models

import (
	"math"
	"time"
)

// Candle: закрытая свеча биржи. После закрытия не меняется.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Closed: свеча закрыта к моменту now (последняя kline у биржи ещё формируется).
func (c Candle) Closed(now time.Time) bool {
	return !c.CloseTime.After(now)
}

// WellFormed проверяет OHLC на NaN/Inf и базовую согласованность.
func (c Candle) WellFormed() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 || c.Volume < 0 {
		return false
	}
	return c.High >= c.Low
}

// HACandle: свеча Heikin-Ashi, считается последовательно от предыдущей.
type HACandle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
}

// Body: абсолютный размер тела.
func (h HACandle) Body() float64 { return math.Abs(h.Close - h.Open) }

// NoLowerWick: бычья свеча без нижней тени.
func (h HACandle) NoLowerWick() bool { return h.Low == h.Open }

// NoUpperWick: медвежья свеча без верхней тени.
func (h HACandle) NoUpperWick() bool { return h.High == h.Open }
