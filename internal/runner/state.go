package runner

import (
	"time"

	"perp_bot/internal/models"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseMonitoring   Phase = "monitoring"
	PhaseOrderPending Phase = "order_pending"
	PhaseInPosition   Phase = "in_position"
)

// State: единственное изменяемое состояние, пишет только цикл раннера.
// В зафиксированном состоянии Position и Pending вместе не бывают:
// при выставлении закрывающего ордера позиция снимается, после исполнения перечитывается с биржи.
type State struct {
	Balance  float64
	Position *models.Position
	Pending  *models.PendingOrder
	// InFlight: ордер ушёл, но ответа нет. Пока не выяснили судьбу, решений не принимаем.
	InFlight *models.OrderIntent

	SignalPending bool
	Monitoring    models.Side
	MonitorBars   int
	// DecidedAt: open_time последней свечи, решение по которой применено целиком.
	DecidedAt time.Time

	LastSync time.Time
}

func (s State) Phase() Phase {
	switch {
	case s.InFlight != nil || s.Pending != nil:
		return PhaseOrderPending
	case s.Position != nil:
		return PhaseInPosition
	case s.Monitoring != models.SideNone:
		return PhaseMonitoring
	default:
		return PhaseIdle
	}
}

func (s *State) clearMonitoring() {
	s.Monitoring = models.SideNone
	s.MonitorBars = 0
}
