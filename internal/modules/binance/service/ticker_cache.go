package service

import (
	"sync"
	"time"

	"perp_bot/internal/models"
)

// TickerCache: одна ячейка bid/ask. Пишет только стрим, цикл торговли только читает.
type TickerCache struct {
	mu       sync.RWMutex
	last     models.BookTicker
	received time.Time
}

func NewTickerCache() *TickerCache { return &TickerCache{} }

func (c *TickerCache) Set(t models.BookTicker, received time.Time) {
	c.mu.Lock()
	c.last, c.received = t, received
	c.mu.Unlock()
}

// Get: false если пусто, другой символ или старше maxAge.
func (c *TickerCache) Get(symbol string, maxAge time.Duration, now time.Time) (models.BookTicker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.received.IsZero() || c.last.Symbol != symbol {
		return models.BookTicker{}, false
	}
	if maxAge > 0 && now.Sub(c.received) > maxAge {
		return models.BookTicker{}, false
	}
	return c.last, true
}
