package runner

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"perp_bot/internal/helper"
	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

// seek ищет вход (Idle/Monitoring) на каждой закрытой свече, ещё не отработанной стратегией.
// Счётчик мониторинга и DecidedAt фиксируются только если тик дошёл до конца.
func (r *Runner) seek(ctx context.Context) error {
	if err := r.revalidateIfDue(ctx); err != nil {
		return err
	}
	if r.st.Position != nil {
		// позицию открыли руками, дальше её ведёт manage
		return nil
	}
	bar, ok := r.undecided()
	if !ok {
		return nil
	}
	w, ok := r.engine.Window()
	if !ok {
		r.st.DecidedAt = bar
		return nil
	}

	bars := r.st.MonitorBars
	if r.st.Monitoring != models.SideNone {
		bars++
		if limit := r.cfg.HeikinAshi.MonitorMaxBars; limit > 0 && bars > limit {
			r.log.Info("monitoring expired", zap.String("side", string(r.st.Monitoring)), zap.Int("bars", bars-1))
			r.st.clearMonitoring()
			r.st.DecidedAt = bar
			return nil
		}
	}

	d := r.strategy.Evaluate(strategyInput(w, nil, r.st.Monitoring))
	r.log.Debug("decision", zap.String("action", string(d.Action)), zap.String("reason", d.Reason))

	switch {
	case d.Action == models.ActionMonitor:
		if r.st.Monitoring != d.Side {
			r.st.Monitoring, r.st.MonitorBars = d.Side, 0
			r.notify(ctx, fmt.Sprintf("👀 %s: жду подтверждения %s (%s)", r.cfg.Symbol, d.Side, d.Reason))
		} else {
			r.st.MonitorBars = bars
		}
	case d.IsOpen():
		if err := r.open(ctx, d); err != nil {
			if apperr.Is(err, apperr.KindRejection) {
				// биржа отказала: решение превращается в Hold
				r.st.clearMonitoring()
				r.st.DecidedAt = bar
			}
			return err
		}
	default:
		if r.st.Monitoring != models.SideNone {
			r.log.Info("monitoring dropped", zap.String("reason", d.Reason))
			r.st.clearMonitoring()
		}
	}
	r.st.DecidedAt = bar
	return nil
}

// open ставит лимитный GTC ордер по лучшей цене своей стороны. Лонг по ask, шорт по bid.
func (r *Runner) open(ctx context.Context, d models.Decision) error {
	side := d.OpenSide()
	bt, err := r.gw.BookTicker(ctx, r.cfg.Symbol)
	if err != nil {
		return err
	}
	price := bt.Ask
	if side == models.SideShort {
		price = bt.Bid
	}

	lastClose, _ := r.lastClose()
	if SlippageExceeded(price, lastClose, r.cfg.Trading.MaxSlippage) {
		r.abortOpen(ctx, side, fmt.Sprintf("цена %.2f далеко от close %.2f", price, lastClose))
		return nil
	}

	tc := r.cfg.Trading
	qty := CalcQty(r.st.Balance, r.cfg.Leverage, price, tc.BalanceFraction, tc.QtyPrecision)
	if qty.LessThan(decimal.NewFromFloat(tc.MinQty)) {
		r.abortOpen(ctx, side, fmt.Sprintf("объём %s меньше минимума %v", qty.String(), tc.MinQty))
		return nil
	}

	req := models.OrderRequest{
		Symbol:        r.cfg.Symbol,
		Side:          side.OpenOrderSide(),
		Type:          models.OrderTypeLimit,
		Qty:           qty.StringFixed(tc.QtyPrecision),
		Price:         helper.FormatPrice(price, tc.PricePrecision),
		TimeInForce:   "GTC",
		ClientOrderID: r.newID(),
	}
	qf, _ := qty.Float64()
	intent := &models.OrderIntent{
		ClientOrderID: req.ClientOrderID,
		Purpose:       models.PurposeOpen,
		Side:          side,
		Qty:           qf,
		Price:         price,
		CreatedAt:     r.now(),
	}
	return r.submit(ctx, req, intent, d.Reason)
}

func (r *Runner) abortOpen(ctx context.Context, side models.Side, why string) {
	r.log.Warn("open aborted", zap.String("side", string(side)), zap.String("reason", why))
	r.st.clearMonitoring()
	r.notify(ctx, fmt.Sprintf("🚫 %s: вход %s отменён: %s", r.cfg.Symbol, side, why))
}

// submit: намерение логируется до вызова. Транзиентная ошибка оставляет InFlight,
// на следующем тике ордер ищется по clientOrderId.
func (r *Runner) submit(ctx context.Context, req models.OrderRequest, intent *models.OrderIntent, reason string) error {
	r.log.Info("submitting order",
		zap.String("purpose", string(intent.Purpose)),
		zap.String("side", string(req.Side)),
		zap.String("type", string(req.Type)),
		zap.String("qty", req.Qty),
		zap.String("price", req.Price),
		zap.String("client_order_id", req.ClientOrderID),
		zap.String("reason", reason),
	)

	o, err := r.gw.PlaceOrder(ctx, req)
	if err != nil {
		if apperr.Is(err, apperr.KindTransient) || apperr.KindOf(err) == apperr.KindUnknown {
			r.st.InFlight = intent
			r.st.SignalPending = true
		}
		return err
	}
	r.adopt(o, intent)
	r.notify(ctx, fmt.Sprintf("📨 %s: %s %s %s @ %s (%s), id=%d",
		r.cfg.Symbol, intent.Purpose, intent.Side, req.Qty, priceOrMarket(req), reason, o.OrderID))
	return nil
}

// adopt фиксирует ордер как Pending. Для закрытия позиция снимается до следующей сверки.
func (r *Runner) adopt(o models.Order, intent *models.OrderIntent) {
	submitted := o.Time
	if submitted.IsZero() {
		submitted = intent.CreatedAt
	}
	qty := o.OrigQty
	if qty == 0 {
		qty = intent.Qty
	}
	price := o.Price
	if price == 0 {
		price = intent.Price
	}
	r.st.Pending = &models.PendingOrder{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Purpose:       intent.Purpose,
		Side:          intent.Side,
		Qty:           qty,
		Price:         price,
		SubmittedAt:   submitted,
		Status:        o.Status,
		ExecutedQty:   o.ExecutedQty,
	}
	if intent.Purpose == models.PurposeClose {
		r.st.Position = nil
	}
	r.st.InFlight = nil
	r.st.SignalPending = true
	r.st.clearMonitoring()
	if bar, ok := r.engine.LastOpenTime(); ok {
		r.st.DecidedAt = bar
	}
}

func priceOrMarket(req models.OrderRequest) string {
	if req.Type == models.OrderTypeMarket {
		return "MARKET"
	}
	return req.Price
}
