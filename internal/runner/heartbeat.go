package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// heartbeat раз в heartbeat_every тиков шлёт короткий статус и проверяет часы.
func (r *Runner) heartbeat(ctx context.Context) {
	line := fmt.Sprintf("💓 %s [%s]", r.cfg.Symbol, r.st.Phase())
	if c, ok := r.lastClose(); ok {
		line += fmt.Sprintf(" close=%.2f", c)
	}
	if w, ok := r.engine.Window(); ok {
		line += " " + r.strategy.Dump(w)
	}
	line += "\n" + r.positionLine()
	r.notify(ctx, line)
	r.checkClock(ctx)
}

// checkClock: подписанные запросы отвергаются, если часы уехали за recvWindow.
func (r *Runner) checkClock(ctx context.Context) {
	if r.cfg.MaxClockSkew <= 0 {
		return
	}
	before := r.now()
	server, err := r.gw.ServerTime(ctx)
	if err != nil {
		r.log.Warn("server time unavailable", zap.Error(err))
		return
	}
	after := r.now()
	local := before.Add(after.Sub(before) / 2)
	skew := server.Sub(local)
	if skew < 0 {
		skew = -skew
	}
	if skew > r.cfg.MaxClockSkew {
		r.log.Warn("clock skew", zap.Duration("skew", skew))
		r.notify(ctx, fmt.Sprintf("🕒 %s: расхождение часов с биржей %s (> %s)", r.cfg.Symbol, skew.Round(time.Millisecond), r.cfg.MaxClockSkew))
	}
}
