package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"perp_bot/internal/models"
	binance "perp_bot/internal/modules/binance/service"
	"perp_bot/pkg/apperr"
)

// pollPending опрашивает ордер в фазе OrderPending.
//   - FILLED полностью или терминальный статус -> сверка аккаунта, Pending снимается;
//     частично исполненный и отменённый ордер оставляет позицию с фактическим объёмом.
//   - NEW/PARTIALLY_FILLED дольше order_timeout -> одна отмена, ждём CANCELED.
func (r *Runner) pollPending(ctx context.Context) error {
	p := *r.st.Pending

	o, err := r.gw.Order(ctx, r.cfg.Symbol, models.OrderRef{OrderID: p.OrderID})
	if apperr.CodeOf(err) == binance.CodeOrderDoesNotExist {
		// ордер пропал с биржи: считаем терминальным и сверяемся
		o, err = models.Order{OrderID: p.OrderID, Status: models.OrderStatusCanceled, ExecutedQty: p.ExecutedQty}, nil
	}
	if err != nil {
		return err
	}

	if !o.Status.Working() {
		return r.settle(ctx, p, o)
	}

	next := p
	next.Status, next.ExecutedQty = o.Status, o.ExecutedQty
	if !p.CancelRequested && r.now().Sub(p.SubmittedAt) > r.cfg.Trading.OrderTimeout {
		err := r.gw.CancelOrder(ctx, r.cfg.Symbol, p.OrderID)
		switch {
		case apperr.CodeOf(err) == binance.CodeUnknownOrder:
			// успел исполниться/отмениться, увидим на следующем опросе
			r.log.Info("cancel: order already gone", zap.Int64("order_id", p.OrderID))
		case err != nil:
			return err
		default:
			r.notify(ctx, fmt.Sprintf("⌛ %s: ордер %d висит дольше %s, отменяю (исполнено %g из %g)",
				r.cfg.Symbol, p.OrderID, r.cfg.Trading.OrderTimeout, o.ExecutedQty, p.Qty))
		}
		next.CancelRequested = true
	}
	r.st.Pending = &next
	return nil
}

// settle: ордер завершён. Позицию не вычисляем, а перечитываем с биржи.
func (r *Runner) settle(ctx context.Context, p models.PendingOrder, o models.Order) error {
	acc, err := r.gw.Account(ctx)
	if err != nil {
		return err
	}
	r.applyAccount(acc)
	r.st.Pending = nil
	r.st.SignalPending = false

	partial := !o.FullyFilled() && o.ExecutedQty > 0
	r.log.Info("order settled",
		zap.Int64("order_id", p.OrderID),
		zap.String("purpose", string(p.Purpose)),
		zap.String("status", string(o.Status)),
		zap.Float64("executed", o.ExecutedQty),
		zap.Bool("partial", partial),
		zap.String("position", string(sideOrNone(r.st.Position))),
	)

	switch {
	case o.FullyFilled():
		r.notify(ctx, fmt.Sprintf("✅ %s: ордер %d исполнен (%s %s %g @ %.2f)\n%s",
			r.cfg.Symbol, p.OrderID, p.Purpose, p.Side, o.ExecutedQty, o.FillPrice(), r.positionLine()))
	case partial:
		r.notify(ctx, fmt.Sprintf("◐ %s: ордер %d %s, исполнено %g из %g\n%s",
			r.cfg.Symbol, p.OrderID, o.Status, o.ExecutedQty, p.Qty, r.positionLine()))
	default:
		r.notify(ctx, fmt.Sprintf("↩️ %s: ордер %d %s\n%s", r.cfg.Symbol, p.OrderID, o.Status, r.positionLine()))
	}
	return nil
}

// reconcileIntent: прошлый PlaceOrder упал без ответа. Ищем ордер по clientOrderId.
func (r *Runner) reconcileIntent(ctx context.Context) error {
	in := r.st.InFlight
	o, err := r.gw.Order(ctx, r.cfg.Symbol, models.OrderRef{ClientOrderID: in.ClientOrderID})
	if apperr.CodeOf(err) == binance.CodeOrderDoesNotExist {
		r.log.Info("in-flight order never reached exchange", zap.String("client_order_id", in.ClientOrderID))
		r.st.InFlight = nil
		r.st.SignalPending = false
		r.st.clearMonitoring()
		return nil
	}
	if err != nil {
		return err
	}

	r.log.Info("in-flight order found", zap.String("client_order_id", in.ClientOrderID), zap.Int64("order_id", o.OrderID))
	r.adopt(o, in)
	r.notify(ctx, fmt.Sprintf("📨 %s: ордер %s найден на бирже, id=%d (%s)", r.cfg.Symbol, in.ClientOrderID, o.OrderID, o.Status))
	return nil
}
