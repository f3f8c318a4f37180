package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"perp_bot/internal/models"
	indicator "perp_bot/internal/modules/indicator/service"
	strategy "perp_bot/internal/modules/strategy/service"
)

func (r *Runner) revalidationDue() bool {
	every := r.cfg.Trading.Revalidate
	return every > 0 && r.now().Sub(r.st.LastSync) >= every
}

// revalidateIfDue делает периодическую сверку. Только чтения, ордеров не создаёт.
func (r *Runner) revalidateIfDue(ctx context.Context) error {
	if !r.revalidationDue() {
		return nil
	}
	return r.sync(ctx)
}

// sync перечитывает баланс и позицию целиком и сообщает о ручном вмешательстве.
func (r *Runner) sync(ctx context.Context) error {
	acc, err := r.gw.Account(ctx)
	if err != nil {
		return err
	}
	prev := r.st.Position
	r.applyAccount(acc)
	cur := r.st.Position

	switch {
	case prev != nil && cur == nil:
		r.log.Warn("position disappeared", zap.String("side", string(prev.Side)))
		r.notify(ctx, fmt.Sprintf("ℹ️ %s: позиция %s закрыта вне бота", r.cfg.Symbol, prev.Side))
	case prev == nil && cur != nil:
		r.log.Warn("position appeared", zap.String("side", string(cur.Side)), zap.Float64("qty", cur.Qty))
		r.st.clearMonitoring()
		r.notify(ctx, fmt.Sprintf("ℹ️ %s: обнаружена позиция вне бота\n%s", r.cfg.Symbol, r.positionLine()))
	case prev != nil && (prev.Side != cur.Side || prev.Qty != cur.Qty):
		r.log.Warn("position changed", zap.Float64("from", prev.Qty), zap.Float64("to", cur.Qty))
		r.notify(ctx, fmt.Sprintf("ℹ️ %s: позиция изменилась\n%s", r.cfg.Symbol, r.positionLine()))
	}
	return nil
}

func (r *Runner) applyAccount(acc models.Account) {
	r.st.Balance = acc.Balance
	r.st.Position = acc.PositionFor(r.cfg.Symbol)
	r.st.LastSync = r.now()
}

func (r *Runner) positionLine() string {
	p := r.st.Position
	if p == nil {
		return fmt.Sprintf("позиции нет, баланс %.2f", r.st.Balance)
	}
	pct, _ := p.ProfitPercent()
	return fmt.Sprintf("%s %g @ %.2f, pnl %.2f (%.2f%%), баланс %.2f",
		p.Side, p.Qty, p.EntryPrice, p.UnrealizedPnL, pct, r.st.Balance)
}

func strategyInput(w indicator.Window, pos *models.Position, monitoring models.Side) strategy.Input {
	return strategy.Input{Window: w, Position: pos, Monitoring: monitoring}
}
