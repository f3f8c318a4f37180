package service

import (
	"fmt"

	"perp_bot/internal/models"
	indicator "perp_bot/internal/modules/indicator/service"
)

// Input: всё, что нужно стратегии на одном тике.
type Input struct {
	Window indicator.Window
	// Position != nil: мы в позиции, проверяются только условия выхода.
	Position *models.Position
	// Monitoring: сторона, по которой ждём подтверждающую свечу.
	Monitoring models.Side
}

// Engine: плагин стратегии. Evaluate детерминирован и без побочных эффектов.
type Engine interface {
	Name() models.StrategyType
	Evaluate(in Input) models.Decision
	// Dump: короткая строка для heartbeat.
	Dump(w indicator.Window) string
}

// ProfitExit: общий выход по take-profit / stop-loss в процентах от изолированной маржи.
type ProfitExit struct {
	TakeProfitPct float64
	StopLossPct   float64
}

func (p ProfitExit) Check(pos models.Position) (models.Decision, bool) {
	pct, ok := pos.ProfitPercent()
	if !ok {
		return models.Decision{}, false
	}
	switch {
	case p.TakeProfitPct > 0 && pct >= p.TakeProfitPct:
		return closeDecision(pos.Side, fmt.Sprintf("take-profit %.2f%%", pct), false), true
	case p.StopLossPct > 0 && pct <= -p.StopLossPct:
		return closeDecision(pos.Side, fmt.Sprintf("stop-loss %.2f%%", pct), true), true
	}
	return models.Decision{}, false
}

func closeDecision(side models.Side, reason string, urgent bool) models.Decision {
	a := models.ActionCloseLong
	if side == models.SideShort {
		a = models.ActionCloseShort
	}
	return models.Decision{Action: a, Side: side, Reason: reason, Urgent: urgent}
}

func openDecision(side models.Side, reason string) models.Decision {
	a := models.ActionOpenLong
	if side == models.SideShort {
		a = models.ActionOpenShort
	}
	return models.Decision{Action: a, Side: side, Reason: reason}
}

func monitorDecision(side models.Side, reason string) models.Decision {
	return models.Decision{Action: models.ActionMonitor, Side: side, Reason: reason}
}
