package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

// Candles: последние limit свечей, от старых к новым. Последняя может быть ещё не закрыта.
// Строка kline: [openTime, open, high, low, close, volume, closeTime, ...].
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var rows [][]any
	if err := c.get(ctx, "/fapi/v1/klines", params, false, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 7 {
			return nil, apperr.DataQuality("kline %d: %d fields", i, len(row))
		}
		out = append(out, models.Candle{
			OpenTime:  msTime(anyInt(row[0])),
			Open:      anyFloat(row[1]),
			High:      anyFloat(row[2]),
			Low:       anyFloat(row[3]),
			Close:     anyFloat(row[4]),
			Volume:    anyFloat(row[5]),
			CloseTime: msTime(anyInt(row[6])),
		})
	}
	return out, nil
}

// BookTicker берёт bid/ask из кэша стрима, если он свежий, иначе через REST.
func (c *Client) BookTicker(ctx context.Context, symbol string) (models.BookTicker, error) {
	if c.tickers != nil {
		if t, ok := c.tickers.Get(symbol, c.tickerMaxAge, c.now()); ok {
			return t, nil
		}
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	var r bookTickerResponse
	if err := c.get(ctx, "/fapi/v1/ticker/bookTicker", params, false, &r); err != nil {
		return models.BookTicker{}, err
	}
	t := models.BookTicker{
		Symbol: r.Symbol,
		Bid:    parseFloat(r.BidPrice),
		Ask:    parseFloat(r.AskPrice),
		Time:   msTime(r.Time),
	}
	if t.Bid <= 0 || t.Ask <= 0 {
		return models.BookTicker{}, apperr.DataQuality("empty book ticker for %s", symbol)
	}
	return t, nil
}

func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	var r serverTimeResponse
	if err := c.get(ctx, "/fapi/v1/time", nil, false, &r); err != nil {
		return time.Time{}, err
	}
	return msTime(r.ServerTime), nil
}

func anyFloat(v any) float64 {
	switch x := v.(type) {
	case string:
		return parseFloat(strings.TrimSpace(x))
	case float64:
		return x
	}
	return 0
}

func anyInt(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}
