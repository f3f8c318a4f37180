package runner

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"perp_bot/internal/models"
)

// Status: снимок для чтения снаружи (telegram /status, healthz).
type Status struct {
	Symbol     string
	Strategy   models.StrategyType
	Phase      Phase
	Balance    float64
	Position   *models.Position
	Pending    *models.PendingOrder
	Monitoring models.Side
	LastClose  float64
	Indicators string
	UpdatedAt  time.Time
}

// StatusBoard: ячейка под мьютексом. Пишет только раннер.
type StatusBoard struct {
	mu   sync.RWMutex
	last Status
}

func NewStatusBoard() *StatusBoard { return &StatusBoard{} }

func (b *StatusBoard) Publish(s Status) {
	b.mu.Lock()
	b.last = s
	b.mu.Unlock()
}

func (b *StatusBoard) Load() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last
}

func (r *Runner) publish() {
	s := Status{
		Symbol:     r.cfg.Symbol,
		Strategy:   r.cfg.Strategy,
		Phase:      r.st.Phase(),
		Balance:    r.st.Balance,
		Monitoring: r.st.Monitoring,
		UpdatedAt:  r.now(),
	}
	// копии, чтобы читатели не видели дальнейших изменений
	if r.st.Position != nil {
		p := *r.st.Position
		s.Position = &p
	}
	if r.st.Pending != nil {
		p := *r.st.Pending
		s.Pending = &p
	}
	if c, ok := r.lastClose(); ok {
		s.LastClose = c
	}
	if w, ok := r.engine.Window(); ok {
		s.Indicators = r.strategy.Dump(w)
	}
	r.board.Publish(s)
	r.health.SetPhase(string(s.Phase))
}

func (s Status) Text() string {
	if s.UpdatedAt.IsZero() {
		return "статус ещё не готов"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s [%s] %s\n", s.Symbol, s.Strategy, s.Phase)
	fmt.Fprintf(&b, "close: %.2f\n", s.LastClose)
	if s.Indicators != "" {
		fmt.Fprintf(&b, "%s\n", s.Indicators)
	}
	if s.Monitoring != models.SideNone {
		fmt.Fprintf(&b, "жду подтверждения: %s\n", s.Monitoring)
	}
	if s.Pending != nil {
		p := s.Pending
		fmt.Fprintf(&b, "ордер %d: %s %s %g @ %.2f %s\n", p.OrderID, p.Purpose, p.Side, p.Qty, p.Price, p.Status)
	}
	b.WriteString(s.PositionText())
	fmt.Fprintf(&b, "\nобновлено: %s", s.UpdatedAt.UTC().Format(time.RFC3339))
	return b.String()
}

func (s Status) PositionText() string {
	if s.Position == nil {
		return fmt.Sprintf("позиции нет, баланс %.2f", s.Balance)
	}
	p := s.Position
	pct, _ := p.ProfitPercent()
	return fmt.Sprintf("%s %g @ %.2f, pnl %.2f (%.2f%%), маржа %.2f, баланс %.2f",
		p.Side, p.Qty, p.EntryPrice, p.UnrealizedPnL, pct, p.IsolatedWallet, s.Balance)
}
