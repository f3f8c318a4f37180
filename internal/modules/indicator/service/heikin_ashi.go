package service

import "perp_bot/internal/models"

// haState считает Heikin-Ashi рекуррентно, HA[i] зависит от HA[i-1].
type haState struct {
	seed float64
	prev models.HACandle
	has  bool
}

func newHA(seed float64) haState { return haState{seed: seed} }

func (h *haState) Update(c models.Candle) models.HACandle {
	closeHA := (c.Open + c.High + c.Low + c.Close) / 4

	var openHA float64
	switch {
	case h.has:
		openHA = (h.prev.Open + h.prev.Close) / 2
	case h.seed > 0:
		openHA = h.seed
	default:
		openHA = (c.Open + c.Close) / 2
	}

	out := models.HACandle{
		OpenTime: c.OpenTime,
		Open:     openHA,
		Close:    closeHA,
		High:     max(openHA, closeHA, c.High),
		Low:      min(openHA, closeHA, c.Low),
	}
	h.prev, h.has = out, true
	return out
}
