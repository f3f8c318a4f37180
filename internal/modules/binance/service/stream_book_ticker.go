package service

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"perp_bot/internal/models"
)

const (
	wsPingEvery   = 30 * time.Second
	wsReadTimeout = 90 * time.Second
)

// StreamBookTicker держит подключение к <symbol>@bookTicker и пишет в TickerCache.
// Переподключается с backoff пока жив ctx. onConn сообщает о состоянии соединения.
func (c *Client) StreamBookTicker(ctx context.Context, symbol string, onConn func(bool)) {
	if onConn == nil {
		onConn = func(bool) {}
	}
	url := strings.TrimRight(c.wsURL, "/") + "/" + strings.ToLower(symbol) + "@bookTicker"
	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	bo := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(300*time.Millisecond),
		backoff.WithMaxInterval(30*time.Second),
		backoff.WithMaxElapsedTime(0),
	)

	for {
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			c.log.Warn("book ticker dial failed", zap.String("url", url), zap.Duration("retry_in", wait), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		onConn(true)
		c.log.Info("book ticker stream connected", zap.String("symbol", symbol))

		err = c.readBookTicker(ctx, conn, symbol)
		onConn(false)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("book ticker stream dropped", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (c *Client) readBookTicker(ctx context.Context, conn *websocket.Conn, symbol string) error {
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		t := time.NewTicker(wsPingEvery)
		defer t.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ctx.Done():
				// разблокирует ReadMessage
				_ = conn.Close()
				return
			case <-t.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev wsBookTicker
		if err := unmarshal(msg, &ev); err != nil || ev.Symbol == "" {
			continue
		}
		t := models.BookTicker{
			Symbol: ev.Symbol,
			Bid:    parseFloat(ev.Bid),
			Ask:    parseFloat(ev.Ask),
			Time:   msTime(ev.TxTime),
		}
		if t.Bid <= 0 || t.Ask <= 0 || !strings.EqualFold(t.Symbol, symbol) {
			continue
		}
		c.tickers.Set(t, c.now())
	}
}
