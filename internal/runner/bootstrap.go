package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

// Init: настройка символа и восстановление состояния с биржи:
// плечо и тип маржи, баланс/позиция, последний открытый ордер, прогрев индикаторов.
// Транзиентные ошибки повторяются, остальное фатально для старта.
func (r *Runner) Init(ctx context.Context) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Second),
		backoff.WithMaxInterval(15*time.Second),
	), 4), ctx)

	err := backoff.RetryNotify(func() error {
		err := r.init(ctx)
		if err != nil && !apperr.Is(err, apperr.KindTransient) {
			return backoff.Permanent(err)
		}
		return err
	}, bo, func(err error, wait time.Duration) {
		r.log.Warn("init failed, retrying", zap.Duration("in", wait), zap.Error(err))
	})
	if err != nil {
		r.notify(ctx, fmt.Sprintf("❌ %s: инициализация не удалась: %v", r.cfg.Symbol, err))
		return err
	}
	r.health.SetReady(true)
	r.publish()
	return nil
}

func (r *Runner) init(ctx context.Context) error {
	if err := r.gw.SetLeverage(ctx, r.cfg.Symbol, r.cfg.Leverage); err != nil {
		return err
	}
	if err := r.gw.SetMarginType(ctx, r.cfg.Symbol, r.cfg.MarginType); err != nil {
		return err
	}

	var (
		acc     models.Account
		open    []models.Order
		candles []models.Candle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		acc, err = r.gw.Account(gctx)
		return errors.Wrap(err, "account")
	})
	g.Go(func() (err error) {
		open, err = r.gw.OpenOrders(gctx, r.cfg.Symbol)
		return errors.Wrap(err, "open orders")
	})
	g.Go(func() (err error) {
		limit := min(r.cfg.Indicators.History+1, maxKlines)
		candles, err = r.gw.Candles(gctx, r.cfg.Symbol, r.cfg.Interval, limit)
		return errors.Wrap(err, "candles")
	})
	if err := g.Wait(); err != nil {
		return err
	}

	now := r.now()
	if _, err := r.engine.Bootstrap(contiguousTail(closedAfter(candles, time.Time{}, false, now), r.interval)); err != nil {
		return err
	}

	st := State{}
	st.Balance = acc.Balance
	st.Position = acc.PositionFor(r.cfg.Symbol)
	st.LastSync = now
	// историю при старте не торгуем, ждём первую свежую свечу
	st.DecidedAt, _ = r.engine.LastOpenTime()
	if o, ok := newestOrder(open); ok {
		st.Pending = pendingFromOpen(o, st.Position)
		if st.Pending.Purpose == models.PurposeClose {
			st.Position = nil
		}
		st.SignalPending = true
	}
	r.st = st

	r.checkClock(ctx)

	r.log.Info("init ok",
		zap.Float64("balance", st.Balance),
		zap.String("phase", string(st.Phase())),
		zap.Int("candles", r.engine.Len()),
	)
	msg := fmt.Sprintf("🚀 %s: старт, стратегия %s, %s, плечо x%d %s\n%s",
		r.cfg.Symbol, r.strategy.Name(), r.cfg.Interval, r.cfg.Leverage, r.cfg.MarginType, r.positionLine())
	if st.Pending != nil {
		msg += fmt.Sprintf("\nподхвачен ордер %d (%s %s)", st.Pending.OrderID, st.Pending.Purpose, st.Pending.Status)
	}
	r.notify(ctx, msg)
	return nil
}

func newestOrder(orders []models.Order) (models.Order, bool) {
	var best models.Order
	found := false
	for _, o := range orders {
		if !o.Status.Working() {
			continue
		}
		if !found || o.Time.After(best.Time) {
			best, found = o, true
		}
	}
	return best, found
}

// pendingFromOpen: ордер, найденный при старте. reduceOnly или сторона против позиции, закрытие.
func pendingFromOpen(o models.Order, pos *models.Position) *models.PendingOrder {
	p := &models.PendingOrder{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Purpose:       models.PurposeOpen,
		Qty:           o.OrigQty,
		Price:         o.Price,
		SubmittedAt:   o.Time,
		Status:        o.Status,
		ExecutedQty:   o.ExecutedQty,
	}
	switch {
	case pos != nil && (o.ReduceOnly || o.Side == pos.Side.CloseOrderSide()):
		p.Purpose, p.Side = models.PurposeClose, pos.Side
	case o.Side == models.OrderSideSell:
		p.Side = models.SideShort
	default:
		p.Side = models.SideLong
	}
	return p
}
