package runner

import (
	"math"

	"github.com/shopspring/decimal"

	"perp_bot/internal/helper"
)

// CalcQty = balance * leverage / price * fraction, усечённое до precision знаков.
// Считается в decimal: 1000*3/2000*0.95 должно дать ровно 1.425, а не 1.424.
func CalcQty(balance float64, leverage int, price, fraction float64, precision int32) decimal.Decimal {
	if balance <= 0 || leverage <= 0 || price <= 0 || fraction <= 0 {
		return decimal.Zero
	}
	q := decimal.NewFromFloat(balance).
		Mul(decimal.NewFromInt(int64(leverage))).
		Div(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromFloat(fraction))
	return helper.TruncateQty(q, precision)
}

// SlippageExceeded: цена ордера ушла от последнего close дальше допустимого.
func SlippageExceeded(orderPrice, lastClose, maxSlippage float64) bool {
	if maxSlippage <= 0 {
		return false
	}
	return math.Abs(orderPrice-lastClose) > maxSlippage
}
