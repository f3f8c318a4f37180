package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"perp_bot/internal/models"
	binance "perp_bot/internal/modules/binance/service"
	"perp_bot/internal/modules/config"
	indicator "perp_bot/internal/modules/indicator/service"
	strategy "perp_bot/internal/modules/strategy/service"
	"perp_bot/pkg/apperr"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu  sync.Mutex
	now func() time.Time

	candles  []models.Candle
	account  models.Account
	ticker   models.BookTicker
	open     []models.Order
	orders   map[int64]models.Order
	byClient map[string]int64
	nextID   int64

	placed   []models.OrderRequest
	canceled []int64
	accounts int

	skew      time.Duration
	placeErr  error
	tickerErr error
	cancelErr error
}

func newFakeGateway(now func() time.Time) *fakeGateway {
	return &fakeGateway{
		now:      now,
		orders:   map[int64]models.Order{},
		byClient: map[string]int64{},
		nextID:   100,
		ticker:   models.BookTicker{Symbol: "ETHUSDT", Bid: 1999.9, Ask: 2000},
	}
}

func (g *fakeGateway) Candles(_ context.Context, _, _ string, limit int) ([]models.Candle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.candles
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append([]models.Candle(nil), out...), nil
}

func (g *fakeGateway) Account(context.Context) (models.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts++
	return g.account, nil
}

func (g *fakeGateway) BookTicker(context.Context, string) (models.BookTicker, error) {
	if g.tickerErr != nil {
		return models.BookTicker{}, g.tickerErr
	}
	return g.ticker, nil
}

func (g *fakeGateway) PlaceOrder(_ context.Context, req models.OrderRequest) (models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placed = append(g.placed, req)
	if g.placeErr != nil {
		return models.Order{}, g.placeErr
	}
	g.nextID++
	price, _ := strconv.ParseFloat(req.Price, 64)
	qty, _ := strconv.ParseFloat(req.Qty, 64)
	o := models.Order{
		OrderID:       g.nextID,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Status:        models.OrderStatusNew,
		Price:         price,
		OrigQty:       qty,
		ReduceOnly:    req.ReduceOnly,
		Time:          g.now(),
	}
	g.orders[o.OrderID] = o
	g.byClient[o.ClientOrderID] = o.OrderID
	return o, nil
}

// CancelOrder только фиксирует вызов: статус меняет тест.
func (g *fakeGateway) CancelOrder(_ context.Context, _ string, orderID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.canceled = append(g.canceled, orderID)
	return g.cancelErr
}

func (g *fakeGateway) Order(_ context.Context, _ string, ref models.OrderRef) (models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ref.OrderID
	if ref.ClientOrderID != "" {
		id = g.byClient[ref.ClientOrderID]
	}
	o, ok := g.orders[id]
	if !ok {
		return models.Order{}, apperr.Rejection(binance.CodeOrderDoesNotExist, "Order does not exist.")
	}
	return o, nil
}

func (g *fakeGateway) OpenOrders(context.Context, string) ([]models.Order, error) { return g.open, nil }

func (g *fakeGateway) SetLeverage(context.Context, string, int) error       { return nil }
func (g *fakeGateway) SetMarginType(context.Context, string, string) error { return nil }

func (g *fakeGateway) ServerTime(context.Context) (time.Time, error) { return g.now().Add(g.skew), nil }

func (g *fakeGateway) setOrder(id int64, status models.OrderStatus, executed float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o := g.orders[id]
	o.Status, o.ExecutedQty = status, executed
	g.orders[id] = o
}

// fill исполняет ордер целиком по средней цене avg.
func (g *fakeGateway) fill(id int64, avg float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o := g.orders[id]
	o.Status, o.ExecutedQty, o.AvgPrice = models.OrderStatusFilled, o.OrigQty, avg
	g.orders[id] = o
}

type fakeNotifier struct {
	msgs []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) bool {
	n.msgs = append(n.msgs, text)
	return true
}

func (n *fakeNotifier) count(sub string) int {
	c := 0
	for _, m := range n.msgs {
		if strings.Contains(m, sub) {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) contains(sub string) bool {
	for _, m := range n.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

// stubStrategy отдаёт заранее заданное решение.
type stubStrategy struct {
	next  models.Decision
	calls int
	last  strategy.Input
}

func (s *stubStrategy) Name() models.StrategyType { return models.StrategyHeikinAshi }

func (s *stubStrategy) Evaluate(in strategy.Input) models.Decision {
	s.calls++
	s.last = in
	if s.next.Action == "" {
		return models.Hold("stub")
	}
	return s.next
}

func (s *stubStrategy) Dump(indicator.Window) string { return "stub" }

type harness struct {
	t    *testing.T
	r    *Runner
	gw   *fakeGateway
	n    *fakeNotifier
	stg  *stubStrategy
	now  time.Time
	bars int
	ids  int
}

func candleAt(i int, close float64) models.Candle {
	open := t0.Add(time.Duration(i) * time.Hour)
	return models.Candle{
		OpenTime:  open,
		CloseTime: open.Add(time.Hour - time.Millisecond),
		Open:      close,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    10,
	}
}

// newHarness: 30 закрытых свечей по 2000 и одна формирующаяся, баланс 1000.
func newHarness(t *testing.T, mutate func(cfg *config.Config)) *harness {
	t.Helper()
	h := &harness{t: t, n: &fakeNotifier{}, stg: &stubStrategy{}}
	h.gw = newFakeGateway(func() time.Time { return h.now })
	h.gw.account = models.Account{Asset: "USDT", Balance: 1000}

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	engine := indicator.NewEngine(indicator.Config{
		RSIPeriod:   14,
		StochPeriod: 14,
		KPeriod:     3,
		DPeriod:     3,
		EMAPeriod:   10,
		BBPeriod:    20,
		BBWidth:     2,
		Interval:    time.Hour,
		Keep:        64,
	})
	h.r = New(Params{
		Config:   &cfg,
		Gateway:  h.gw,
		Notifier: h.n,
		Engine:   engine,
		Strategy: h.stg,
		Logger:   zap.NewNop(),
	})
	h.r.now = func() time.Time { return h.now }
	h.r.newID = func() string {
		h.ids++
		return fmt.Sprintf("cid-%d", h.ids)
	}
	h.setBars(30)
	return h
}

func (h *harness) setBars(n int) {
	h.bars = n
	h.gw.candles = h.gw.candles[:0]
	for i := 0; i <= n; i++ {
		h.gw.candles = append(h.gw.candles, candleAt(i, 2000))
	}
	h.now = t0.Add(time.Duration(n)*time.Hour + time.Minute)
}

func (h *harness) nextBar() { h.setBars(h.bars + 1) }

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func (h *harness) init() {
	h.t.Helper()
	if err := h.r.Init(context.Background()); err != nil {
		h.t.Fatalf("init: %v", err)
	}
}

func (h *harness) tick() error { return h.r.Tick(context.Background()) }

func (h *harness) mustTick() {
	h.t.Helper()
	if err := h.tick(); err != nil {
		h.t.Fatalf("tick: %v", err)
	}
	h.checkInvariant()
}

func (h *harness) checkInvariant() {
	h.t.Helper()
	st := h.r.State()
	if st.Position != nil && (st.Pending != nil || st.InFlight != nil) {
		h.t.Fatalf("position and pending order coexist: %+v", st)
	}
}

func (h *harness) longPosition(qty float64) {
	h.gw.account.Positions = []models.Position{{
		Symbol:         "ETHUSDT",
		Side:           models.SideLong,
		Qty:            qty,
		EntryPrice:     2000,
		IsolatedWallet: 950,
		Leverage:       3,
	}}
}

var errNetwork = errors.New("connection reset")
