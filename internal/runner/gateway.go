package runner

import (
	"context"
	"time"

	"perp_bot/internal/models"
)

// Gateway: всё, что раннеру нужно от биржи.
// Чтения идемпотентны, PlaceOrder/CancelOrder: единственные мутирующие вызовы.
type Gateway interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	Account(ctx context.Context) (models.Account, error)
	BookTicker(ctx context.Context, symbol string) (models.BookTicker, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Order, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	Order(ctx context.Context, symbol string, ref models.OrderRef) (models.Order, error)
	OpenOrders(ctx context.Context, symbol string) ([]models.Order, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginType(ctx context.Context, symbol, marginType string) error
	ServerTime(ctx context.Context) (time.Time, error)
}

// Notifier работает best-effort. false значит сообщение потеряно, торговлю это не останавливает.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}
