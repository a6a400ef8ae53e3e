package testsupport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gestao/internal/gateway"
	"gestao/internal/snapshots"
	"gestao/internal/timeframe"
)

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// MockTimeProvider pins the clock for tests
type MockTimeProvider struct {
	FixedTime time.Time
}

func (m *MockTimeProvider) Now(loc *time.Location) time.Time {
	return m.FixedTime.In(loc)
}

// FixedClock returns a clock in the default timezone whose "today" is the given date
func FixedClock(t *testing.T, today string) *timeframe.Clock {
	t.Helper()
	d := timeframe.MustParseDate(today)
	// 15:00 UTC is midday in Sao Paulo
	provider := &MockTimeProvider{FixedTime: time.Date(d.Year, d.Month, d.Day, 15, 0, 0, 0, time.UTC)}
	clock, err := timeframe.NewClock(timeframe.DefaultTimezone, provider)
	if err != nil {
		t.Fatalf("testsupport: failed to build clock: %v", err)
	}
	return clock
}

// SetupTestDB creates an in-memory snapshot database with all models migrated.
// Each test gets its own named database, closed on cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	sanitizedName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	if err := snapshots.Migrate(db); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// FakeResponse is what FakeGateway returns for a range
type FakeResponse struct {
	Result *gateway.PeriodResult
	Err    error
}

// FakeGateway is a scripted gateway. Responses are keyed by range; unknown ranges return an
// empty result. Fetches for a held range block until released or until their context ends.
type FakeGateway struct {
	// IgnoreCancellation makes held fetches wait for release even when cancelled,
	// simulating a backend that answers late
	IgnoreCancellation bool

	mu        sync.Mutex
	responses map[string]FakeResponse
	gates     map[string]chan struct{}
	calls     []timeframe.DateRange
	started   chan timeframe.DateRange
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		responses: make(map[string]FakeResponse),
		gates:     make(map[string]chan struct{}),
		started:   make(chan timeframe.DateRange, 64),
	}
}

// Respond scripts the answer for r
func (f *FakeGateway) Respond(r timeframe.DateRange, result *gateway.PeriodResult, err error) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[r.Key()] = FakeResponse{Result: result, Err: err}
	return f
}

// Hold makes fetches of r block; the returned function releases them
func (f *FakeGateway) Hold(r timeframe.DateRange) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[r.Key()] = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Started receives every range as its fetch begins
func (f *FakeGateway) Started() <-chan timeframe.DateRange {
	return f.started
}

func (f *FakeGateway) Calls() []timeframe.DateRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]timeframe.DateRange(nil), f.calls...)
}

func (f *FakeGateway) CallCount(r timeframe.DateRange) int {
	count := 0
	for _, c := range f.Calls() {
		if c == r {
			count++
		}
	}
	return count
}

func (f *FakeGateway) Fetch(ctx context.Context, r timeframe.DateRange) (*gateway.PeriodResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	gate := f.gates[r.Key()]
	f.mu.Unlock()

	select {
	case f.started <- r:
	default:
	}

	if gate != nil {
		if f.IgnoreCancellation {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, &gateway.CancelledError{Err: ctx.Err()}
			}
		}
	}

	f.mu.Lock()
	resp, ok := f.responses[r.Key()]
	f.mu.Unlock()

	if !ok {
		return &gateway.PeriodResult{}, nil
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Result, nil
}

// KpiResult builds a result carrying only headline figures
func KpiResult(sessions, orders int64, revenue float64) *gateway.PeriodResult {
	aov := 0.0
	if orders > 0 {
		aov = revenue / float64(orders)
	}
	conv := 0.0
	if sessions > 0 {
		conv = float64(orders) / float64(sessions)
	}
	return &gateway.PeriodResult{
		Kpis: gateway.KpiSet{
			Revenue:           revenue,
			Orders:            orders,
			AverageOrderValue: aov,
			Sessions:          sessions,
			ConversionRate:    conv,
		},
		DailyFunnel: []gateway.FunnelDailyRecord{},
		Channels:    []gateway.ChannelRecord{},
	}
}

// SampleResult builds a full result for r with one funnel row per day and two channels
func SampleResult(r timeframe.DateRange, sessionsPerDay int64) *gateway.PeriodResult {
	result := KpiResult(0, 0, 0)
	days := timeframe.InclusiveDayCount(r)
	for i := 0; i < days; i++ {
		result.DailyFunnel = append(result.DailyFunnel, gateway.FunnelDailyRecord{
			Date:                    timeframe.OffsetDays(r.Start, i),
			Sessions:                sessionsPerDay,
			SessionsWithCart:        sessionsPerDay / 10,
			SessionsReachedCheckout: sessionsPerDay / 20,
			ValidApprovedOrders:     sessionsPerDay / 50,
		})
	}
	sessions := sessionsPerDay * int64(days)
	orders := (sessionsPerDay / 50) * int64(days)
	result.Kpis = KpiResult(sessions, orders, float64(orders)*150).Kpis
	result.Channels = []gateway.ChannelRecord{
		{Channel: "google", Type: gateway.ChannelTypePaid, Sessions: sessions * 3 / 4, Revenue: float64(orders) * 100, Orders: orders * 2 / 3},
		{Channel: "newsletter", Type: gateway.ChannelTypeEmail, Sessions: sessions / 4, Revenue: float64(orders) * 50, Orders: orders / 3},
	}
	return result
}

// SamplePayload is a metrics API response body in wire format
const SamplePayload = `{
  "kpis": {"vendas": 1500, "pedidos": 10, "aov": 150, "sessoes": 500,
           "taxa_conversao": 0.02, "pedidos_novos": 6, "pedidos_recorrentes": 4},
  "funnel_daily": [
    {"data": "2024-03-01", "sessoes": 250, "sessoes_com_carrinho": 25,
     "sessoes_chegaram_checkout": 12, "pedidos_aprovados_validos": 5, "taxa_conversao": 0.02},
    {"data": "2024-03-02", "sessoes": 250, "sessoes_com_carrinho": 25,
     "sessoes_chegaram_checkout": 13, "pedidos_aprovados_validos": 5, "taxa_conversao": 0.02}
  ],
  "channels": [
    {"canal": "google", "tipo": "paid", "sessoes": 400, "vendas": 1200, "pedidos": 8,
     "taxa_conversao": 0.02, "aov": 150, "pedidos_novos_clientes": 5, "pedidos_clientes_recorrentes": 3},
    {"canal": "newsletter", "tipo": "email", "sessoes": 100, "vendas": 300, "pedidos": 2,
     "taxa_conversao": 0.02, "aov": 150, "pedidos_novos_clientes": 1, "pedidos_clientes_recorrentes": 1}
  ]
}`

// NewMetricsServer starts an httptest server answering every query with SamplePayload
func NewMetricsServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(SamplePayload))
	}))
	t.Cleanup(server.Close)
	return server
}

// Eventually waits until cond holds or fails the test after timeout
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("testsupport: condition not met within %s", timeout)
}
