package service

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

const marginAsset = "USDT"

// Account: доступный баланс USDT и ненулевые позиции.
func (c *Client) Account(ctx context.Context) (models.Account, error) {
	var r accountResponse
	if err := c.get(ctx, "/fapi/v2/account", nil, true, &r); err != nil {
		return models.Account{}, err
	}

	acc := models.Account{Asset: marginAsset}
	for _, a := range r.Assets {
		if a.Asset == marginAsset {
			acc.Balance = parseFloat(a.AvailableBalance)
		}
	}
	for _, p := range r.Positions {
		amt := parseFloat(p.PositionAmt)
		if amt == 0 {
			continue
		}
		side := models.SideLong
		if amt < 0 {
			side = models.SideShort
		}
		lev, _ := strconv.Atoi(p.Leverage)
		acc.Positions = append(acc.Positions, models.Position{
			Symbol:         p.Symbol,
			Side:           side,
			Qty:            math.Abs(amt),
			EntryPrice:     parseFloat(p.EntryPrice),
			UnrealizedPnL:  parseFloat(p.UnrealizedProfit),
			IsolatedWallet: parseFloat(p.IsolatedWallet),
			Leverage:       lev,
			UpdatedAt:      msTime(p.UpdateTime),
		})
	}
	return acc, nil
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))
	if err := c.do(ctx, http.MethodPost, "/fapi/v1/leverage", params, true, nil); err != nil {
		return errors.Wrapf(err, "set leverage %s x%d", symbol, leverage)
	}
	return nil
}

// SetMarginType идемпотентен: -4046 «No need to change margin type»: не ошибка.
func (c *Client) SetMarginType(ctx context.Context, symbol, marginType string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", marginType)
	err := c.do(ctx, http.MethodPost, "/fapi/v1/marginType", params, true, nil)
	if apperr.Ignorable(err, CodeMarginTypeNoChange) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "set margin type %s %s", symbol, marginType)
	}
	return nil
}
