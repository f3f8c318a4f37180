package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"perp_bot/internal/helper"
	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

const (
	steadyLimit = 5
	maxKlines   = 1500
)

func intervalOf(raw string) (time.Duration, bool) { return helper.IntervalDuration(raw) }

// ingest подтягивает новые закрытые свечи в движок индикаторов.
func (r *Runner) ingest(ctx context.Context) error {
	if r.rebuild {
		return r.rebootstrap(ctx)
	}
	now := r.now()
	limit := steadyLimit
	last, has := r.engine.LastOpenTime()
	if has && r.interval > 0 {
		// после простоя добираем пропущенное, иначе индикаторы увидят дыру
		if missed := int(now.Sub(last)/r.interval) + 2; missed > limit {
			limit = min(missed, maxKlines)
		}
	}

	candles, err := r.gw.Candles(ctx, r.cfg.Symbol, r.cfg.Interval, limit)
	if err != nil {
		return err
	}

	added := 0
	for _, c := range closedAfter(candles, last, has, now) {
		if _, err := r.engine.Update(c); err != nil {
			// дыра или битая свеча: тик пропускаем, на следующем пересобираем историю целиком
			r.rebuild = apperr.Is(err, apperr.KindDataQuality)
			return err
		}
		added++
	}
	if added > 0 {
		if s, ok := r.engine.Last(); ok {
			r.log.Debug("candle closed", zap.Stringer("snapshot", s))
		}
	}
	return nil
}

// rebootstrap пересчитывает индикаторы по свежей истории после ошибки данных.
func (r *Runner) rebootstrap(ctx context.Context) error {
	limit := min(r.cfg.Indicators.History+1, maxKlines)
	candles, err := r.gw.Candles(ctx, r.cfg.Symbol, r.cfg.Interval, limit)
	if err != nil {
		return err
	}
	closed := contiguousTail(closedAfter(candles, time.Time{}, false, r.now()), r.interval)
	if _, err := r.engine.Bootstrap(closed); err != nil {
		return err
	}
	r.rebuild = false
	r.log.Info("indicators rebuilt", zap.Int("candles", r.engine.Len()))
	return nil
}

// undecided: последняя закрытая свеча ещё не отработана стратегией.
// Решение фиксируется в State.DecidedAt только после успешного тика, поэтому сбой повторяется на следующем.
func (r *Runner) undecided() (time.Time, bool) {
	last, ok := r.engine.LastOpenTime()
	return last, ok && last.After(r.st.DecidedAt)
}

func closedAfter(candles []models.Candle, after time.Time, has bool, now time.Time) []models.Candle {
	out := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if !c.Closed(now) {
			continue
		}
		if has && !c.OpenTime.After(after) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// contiguousTail: самый длинный хвост без пропущенных свечей.
func contiguousTail(candles []models.Candle, interval time.Duration) []models.Candle {
	if interval <= 0 || len(candles) < 2 {
		return candles
	}
	i := len(candles) - 1
	for i > 0 && candles[i].OpenTime.Sub(candles[i-1].OpenTime) == interval {
		i--
	}
	return candles[i:]
}
