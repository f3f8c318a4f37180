package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"perp_bot/internal/models"
)

// PlaceOrder: единственный не идемпотентный вызов, не повторяется.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", string(req.Type))
	params.Set("quantity", req.Qty)
	if req.Type == models.OrderTypeLimit {
		params.Set("price", req.Price)
		tif := req.TimeInForce
		if tif == "" {
			tif = "GTC"
		}
		params.Set("timeInForce", tif)
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}
	params.Set("newOrderRespType", "RESULT")

	var r orderResponse
	if err := c.do(ctx, http.MethodPost, "/fapi/v1/order", params, true, &r); err != nil {
		return models.Order{}, errors.Wrapf(err, "place %s %s %s", req.Type, req.Side, req.Qty)
	}
	return toOrder(r), nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))
	if err := c.do(ctx, http.MethodDelete, "/fapi/v1/order", params, true, nil); err != nil {
		return errors.Wrapf(err, "cancel order %d", orderID)
	}
	return nil
}

// Order: состояние ордера по orderId или origClientOrderId.
func (c *Client) Order(ctx context.Context, symbol string, ref models.OrderRef) (models.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if ref.OrderID != 0 {
		params.Set("orderId", strconv.FormatInt(ref.OrderID, 10))
	} else {
		params.Set("origClientOrderId", ref.ClientOrderID)
	}
	var r orderResponse
	if err := c.get(ctx, "/fapi/v1/order", params, true, &r); err != nil {
		return models.Order{}, err
	}
	return toOrder(r), nil
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	var rows []orderResponse
	if err := c.get(ctx, "/fapi/v1/openOrders", params, true, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, toOrder(r))
	}
	return out, nil
}

func toOrder(r orderResponse) models.Order {
	ts := r.Time
	if ts == 0 {
		ts = r.UpdateTime
	}
	return models.Order{
		OrderID:       r.OrderID,
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Side:          models.OrderSide(r.Side),
		Type:          models.OrderType(r.Type),
		Status:        models.OrderStatus(r.Status),
		Price:         parseFloat(r.Price),
		AvgPrice:      parseFloat(r.AvgPrice),
		OrigQty:       parseFloat(r.OrigQty),
		ExecutedQty:   parseFloat(r.ExecutedQty),
		ReduceOnly:    r.ReduceOnly,
		Time:          msTime(ts),
	}
}
