package models

type StrategyType string

const (
	StrategyHeikinAshi StrategyType = "heikin_ashi"
	StrategyBollinger  StrategyType = "bollinger"
)

type Action string

const (
	ActionHold       Action = "HOLD"
	ActionMonitor    Action = "MONITOR"
	ActionOpenLong   Action = "OPEN_LONG"
	ActionOpenShort  Action = "OPEN_SHORT"
	ActionCloseLong  Action = "CLOSE_LONG"
	ActionCloseShort Action = "CLOSE_SHORT"
)

// Decision: результат стратегии на текущем окне.
type Decision struct {
	Action Action
	Side   Side // для Monitor: сторона, которую ждём
	Reason string
	// Urgent: выход по стоп-лоссу, закрываем по рынку.
	Urgent bool
}

func Hold(reason string) Decision { return Decision{Action: ActionHold, Reason: reason} }

func (d Decision) IsOpen() bool {
	return d.Action == ActionOpenLong || d.Action == ActionOpenShort
}

func (d Decision) IsClose() bool {
	return d.Action == ActionCloseLong || d.Action == ActionCloseShort
}

// OpenSide: сторона позиции для Open*.
func (d Decision) OpenSide() Side {
	switch d.Action {
	case ActionOpenLong:
		return SideLong
	case ActionOpenShort:
		return SideShort
	}
	return SideNone
}
