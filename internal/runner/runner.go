package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"perp_bot/internal/models"
	"perp_bot/internal/modules/config"
	health "perp_bot/internal/modules/health/service"
	indicator "perp_bot/internal/modules/indicator/service"
	strategy "perp_bot/internal/modules/strategy/service"
	"perp_bot/pkg/apperr"
)

// Runner: машина состояний позиции/ордера и её цикл.
// Один тик: свечи -> индикаторы -> стратегия -> решение -> (ордер) -> уведомление.
type Runner struct {
	cfg      *config.Config
	gw       Gateway
	n        Notifier
	engine   *indicator.Engine
	strategy strategy.Engine
	board    *StatusBoard
	health   *health.State
	log      *zap.Logger

	now   func() time.Time
	newID func() string

	st         State
	ticks      int
	interval   time.Duration
	rebuild    bool
	deferredAt time.Time
}

type Params struct {
	Config   *config.Config
	Gateway  Gateway
	Notifier Notifier
	Engine   *indicator.Engine
	Strategy strategy.Engine
	Board    *StatusBoard
	Health   *health.State
	Logger   *zap.Logger
}

func New(p Params) *Runner {
	interval := time.Duration(0)
	if d, ok := intervalOf(p.Config.Interval); ok {
		interval = d
	}
	hs := p.Health
	if hs == nil {
		hs = health.NewState()
	}
	board := p.Board
	if board == nil {
		board = NewStatusBoard()
	}
	return &Runner{
		cfg:      p.Config,
		gw:       p.Gateway,
		n:        p.Notifier,
		engine:   p.Engine,
		strategy: p.Strategy,
		board:    board,
		health:   hs,
		log:      p.Logger.Named("runner").With(zap.String("symbol", p.Config.Symbol)),
		now:      time.Now,
		newID:    uuid.NewString,
		interval: interval,
	}
}

// State: копия для тестов и статуса.
func (r *Runner) State() State { return r.st }

// Run крутит тики до отмены ctx. Текущий тик доживает до конца на своём контексте,
// чтобы не оборвать выставление ордера посередине.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.LoopInterval)
	defer ticker.Stop()

	r.log.Info("runner loop started", zap.Duration("every", r.cfg.LoopInterval))
	for {
		r.runTick()
		select {
		case <-ctx.Done():
			r.log.Info("runner loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) runTick() {
	ctx := context.Background()
	if r.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TickTimeout)
		defer cancel()
	}
	_ = r.Tick(ctx)
	r.health.TouchTick(r.now())
}

// Tick: один шаг. Любая ошибка внешнего вызова прерывает тик, состояние остаётся прежним.
func (r *Runner) Tick(ctx context.Context) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.tick")
	defer func() {
		if err != nil {
			ext.Error.Set(span, true)
		}
		span.SetTag("phase", string(r.st.Phase()))
		span.Finish()
	}()
	r.ticks++
	defer r.publish()

	if err = r.ingest(ctx); err != nil {
		return r.fail(ctx, "candles", err)
	}

	phase := r.st.Phase()
	switch {
	case r.st.InFlight != nil:
		err = r.reconcileIntent(ctx)
	case r.st.Pending != nil:
		err = r.pollPending(ctx)
	case r.st.Position != nil:
		err = r.manage(ctx)
	default:
		err = r.seek(ctx)
	}
	if err != nil {
		return r.fail(ctx, string(phase), err)
	}
	if next := r.st.Phase(); next != phase {
		r.log.Info("phase changed", zap.String("from", string(phase)), zap.String("to", string(next)))
	}

	if r.cfg.HeartbeatEvery > 0 && r.ticks%r.cfg.HeartbeatEvery == 0 {
		r.heartbeat(ctx)
	}
	return nil
}

// fail: ошибка ловится на границе тика, логируется и уходит оператору.
func (r *Runner) fail(ctx context.Context, stage string, err error) error {
	kind := apperr.KindOf(err)
	r.log.Error("tick aborted",
		zap.String("stage", stage),
		zap.String("kind", kind.String()),
		zap.Int("code", apperr.CodeOf(err)),
		zap.Error(err),
	)
	r.notify(ctx, fmt.Sprintf("⚠️ %s: тик прерван [%s]\n%v", r.cfg.Symbol, kind, err))
	return err
}

func (r *Runner) notify(ctx context.Context, text string) {
	if r.n == nil {
		return
	}
	if !r.n.Notify(ctx, text) {
		r.log.Warn("notification dropped")
	}
}

// Shutdown: ничего не отменяем, висящий ордер подхватится при следующем старте.
func (r *Runner) Shutdown(ctx context.Context) {
	switch {
	case r.st.InFlight != nil:
		in := r.st.InFlight
		r.log.Warn("shutdown with unconfirmed order", zap.String("client_order_id", in.ClientOrderID))
		r.notify(ctx, fmt.Sprintf("⏹ %s: остановка, ордер %s не подтверждён биржей", r.cfg.Symbol, in.ClientOrderID))
	case r.st.Pending != nil:
		p := r.st.Pending
		r.log.Warn("shutdown with pending order", zap.Int64("order_id", p.OrderID), zap.String("status", string(p.Status)))
		r.notify(ctx, fmt.Sprintf("⏹ %s: остановка, ордер %d (%s) остаётся на бирже", r.cfg.Symbol, p.OrderID, p.Status))
	default:
		r.log.Info("shutdown", zap.String("phase", string(r.st.Phase())))
		r.notify(ctx, fmt.Sprintf("⏹ %s: остановка (%s)", r.cfg.Symbol, r.st.Phase()))
	}
}

func (r *Runner) lastClose() (float64, bool) {
	s, ok := r.engine.Last()
	if !ok {
		return 0, false
	}
	return s.Candle.Close, true
}

func sideOrNone(p *models.Position) models.Side {
	if p == nil {
		return models.SideNone
	}
	return p.Side
}
