package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"perp_bot/internal/helper"
	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

// manage ведёт InPosition. Сверка с биржей на неотработанной свече или по расписанию, затем проверка выхода.
// Выход, отложенный сбоем или проскальзыванием, повторяется на следующих тиках той же свечи.
func (r *Runner) manage(ctx context.Context) error {
	bar, pending := r.undecided()
	if !pending && !r.revalidationDue() {
		return nil
	}
	if err := r.sync(ctx); err != nil {
		return err
	}
	if r.st.Position == nil || !pending {
		return nil
	}

	w, ok := r.engine.Window()
	if !ok {
		r.st.DecidedAt = bar
		return nil
	}
	d := r.strategy.Evaluate(strategyInput(w, r.st.Position, models.SideNone))
	r.log.Debug("decision", zap.String("action", string(d.Action)), zap.String("reason", d.Reason))
	if !d.IsClose() {
		r.st.DecidedAt = bar
		return nil
	}
	done, err := r.closePosition(ctx, d)
	if err != nil && apperr.Is(err, apperr.KindRejection) {
		done = true
	}
	if done {
		r.st.DecidedAt = bar
	}
	return err
}

// closePosition: лонг закрываем по bid, шорт по ask, reduceOnly.
// Стоп-лосс при market_stop_loss уходит рыночным ордером без проверки проскальзывания.
// false без ошибки: выход отложен из-за проскальзывания.
func (r *Runner) closePosition(ctx context.Context, d models.Decision) (bool, error) {
	pos := *r.st.Position
	tc := r.cfg.Trading

	req := models.OrderRequest{
		Symbol:        r.cfg.Symbol,
		Side:          pos.Side.CloseOrderSide(),
		Qty:           helper.FormatQty(pos.Qty, tc.QtyPrecision),
		ReduceOnly:    true,
		ClientOrderID: r.newID(),
	}
	intent := &models.OrderIntent{
		ClientOrderID: req.ClientOrderID,
		Purpose:       models.PurposeClose,
		Side:          pos.Side,
		Qty:           pos.Qty,
		CreatedAt:     r.now(),
	}

	if d.Urgent && tc.MarketStopLoss {
		req.Type = models.OrderTypeMarket
		return r.submitClose(ctx, req, intent, d.Reason)
	}

	bt, err := r.gw.BookTicker(ctx, r.cfg.Symbol)
	if err != nil {
		return false, err
	}
	price := bt.Bid
	if pos.Side == models.SideShort {
		price = bt.Ask
	}
	lastClose, _ := r.lastClose()
	if SlippageExceeded(price, lastClose, tc.MaxSlippage) {
		r.log.Warn("close deferred", zap.Float64("price", price), zap.Float64("close", lastClose))
		// оператору пишем один раз на свечу, повторы только в лог
		if bar, _ := r.engine.LastOpenTime(); !bar.Equal(r.deferredAt) {
			r.deferredAt = bar
			r.notify(ctx, fmt.Sprintf("🚫 %s: выход %s отложен: цена %.2f далеко от close %.2f",
				r.cfg.Symbol, pos.Side, price, lastClose))
		}
		return false, nil
	}

	req.Type = models.OrderTypeLimit
	req.TimeInForce = "GTC"
	req.Price = helper.FormatPrice(price, tc.PricePrecision)
	intent.Price = price
	return r.submitClose(ctx, req, intent, d.Reason)
}

func (r *Runner) submitClose(ctx context.Context, req models.OrderRequest, intent *models.OrderIntent, reason string) (bool, error) {
	if err := r.submit(ctx, req, intent, reason); err != nil {
		return false, err
	}
	return true, nil
}
