package models

import "time"

// Side позиции.
type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite возвращает противоположную сторону.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	}
	return SideNone
}

// OpenOrderSide: LONG открывается BUY, SHORT открывается SELL.
func (s Side) OpenOrderSide() OrderSide {
	if s == SideShort {
		return OrderSideSell
	}
	return OrderSideBuy
}

// CloseOrderSide: обратная сторона ордера для закрытия.
func (s Side) CloseOrderSide() OrderSide {
	if s == SideShort {
		return OrderSideBuy
	}
	return OrderSideSell
}

// Position: позиция по символу, целиком перечитывается с биржи.
type Position struct {
	Symbol         string
	Side           Side
	Qty            float64
	EntryPrice     float64
	UnrealizedPnL  float64
	IsolatedWallet float64
	Leverage       int
	UpdatedAt      time.Time
}

// ProfitPercent = unrealized / isolated wallet * 100. ok=false если кошелёк пуст.
func (p Position) ProfitPercent() (float64, bool) {
	if p.IsolatedWallet == 0 {
		return 0, false
	}
	return p.UnrealizedPnL / p.IsolatedWallet * 100, true
}

// Account это доступный баланс в марже и открытые позиции, как их отдаёт биржа.
type Account struct {
	Asset     string
	Balance   float64
	Positions []Position
}

// PositionFor ищет ненулевую позицию по символу.
func (a Account) PositionFor(symbol string) *Position {
	for i := range a.Positions {
		if a.Positions[i].Symbol == symbol && a.Positions[i].Qty > 0 {
			p := a.Positions[i]
			return &p
		}
	}
	return nil
}
