package models

import "time"

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// Working: ордер ещё стоит в стакане.
func (s OrderStatus) Working() bool {
	return s == OrderStatusNew || s == OrderStatusPartiallyFilled
}

// OrderPurpose говорит, зачем выставлен ордер (вход или выход).
type OrderPurpose string

const (
	PurposeOpen  OrderPurpose = "open"
	PurposeClose OrderPurpose = "close"
)

// OrderRequest: параметры нового ордера. Qty и Price уже округлены.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Qty           string
	Price         string // пусто для MARKET
	TimeInForce   string
	ReduceOnly    bool
	ClientOrderID string
}

// OrderRef ссылается на ордер по id биржи или по clientOrderId.
type OrderRef struct {
	OrderID       int64
	ClientOrderID string
}

// Order: состояние ордера на бирже.
type Order struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Status        OrderStatus
	Price         float64
	AvgPrice      float64 // средняя цена исполнения, 0 пока ничего не исполнено
	OrigQty       float64
	ExecutedQty   float64
	ReduceOnly    bool
	Time          time.Time
}

// FillPrice: средняя цена исполнения, для MARKET без неё цены нет.
func (o Order) FillPrice() float64 {
	if o.AvgPrice > 0 {
		return o.AvgPrice
	}
	return o.Price
}

// FullyFilled: статус FILLED и весь объём исполнен.
func (o Order) FullyFilled() bool {
	return o.Status == OrderStatusFilled && o.OrigQty == o.ExecutedQty
}

// PendingOrder: ордер, который мы ждём. Принадлежит только машине состояний.
type PendingOrder struct {
	OrderID         int64
	ClientOrderID   string
	Purpose         OrderPurpose
	Side            Side // сторона позиции, которую открываем или закрываем
	Qty             float64
	Price           float64
	SubmittedAt     time.Time
	Status          OrderStatus
	ExecutedQty     float64
	CancelRequested bool
}

// OrderIntent: ордер отправлен, но ответ биржи не получен (таймаут/сеть).
type OrderIntent struct {
	ClientOrderID string
	Purpose       OrderPurpose
	Side          Side
	Qty           float64
	Price         float64
	CreatedAt     time.Time
}

// BookTicker: лучшие bid/ask.
type BookTicker struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}
