package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gestao/internal/analytics"
	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

var (
	// ErrSuperseded is returned by Cycle.Wait when a newer selection replaced the cycle
	ErrSuperseded = errors.New("cycle superseded by a newer range selection")
	// ErrClosed is returned when selecting a range on a closed controller
	ErrClosed = errors.New("dashboard controller is closed")
)

// Status of the latest cycle
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State is an immutable snapshot of the controller.
// Outcome is the last successfully published outcome; it stays visible while a newer cycle
// is pending and after a newer cycle failed.
type State struct {
	Status    Status               `json:"status" yaml:"status"`
	CycleID   string               `json:"cycle_id,omitempty" yaml:"cycle_id,omitempty"`
	Range     *timeframe.DateRange `json:"range,omitempty" yaml:"range,omitempty"`
	Outcome   *ComparisonOutcome   `json:"-" yaml:"-"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt time.Time            `json:"updated_at" yaml:"updated_at"`

	// Err is the failure behind Error
	Err error `json:"-" yaml:"-"`
}

// Cycle is one orchestration run started by SelectRange
type Cycle struct {
	ID    string
	Range timeframe.DateRange

	seq        uint64
	done       chan struct{}
	state      State
	superseded bool
}

// Done is closed when the cycle has settled or was dropped
func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cycle settles and returns the state it published.
// A cycle replaced by a newer selection returns ErrSuperseded.
func (c *Cycle) Wait(ctx context.Context) (State, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	if c.superseded {
		return State{}, ErrSuperseded
	}
	return c.state, nil
}

const subscriberBuffer = 4

// Controller owns the dashboard state: the selected range, the live cycle and the last
// published outcome. Only the most recently started cycle may publish.
type Controller struct {
	gw     gateway.Gateway
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	seq         uint64
	cancel      context.CancelFunc
	state       State
	subscribers map[uint64]chan State
	nextSubID   uint64
	closed      bool
	wg          sync.WaitGroup
}

func NewController(gw gateway.Gateway, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		gw:          gw,
		logger:      logger,
		now:         time.Now,
		state:       State{Status: StatusIdle, UpdatedAt: time.Now()},
		subscribers: make(map[uint64]chan State),
	}
}

// SelectRange cancels the in-flight cycle, if any, and starts a new one for r
func (c *Controller) SelectRange(r timeframe.DateRange) (*Cycle, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.seq++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	cycle := &Cycle{
		ID:    uuid.NewString(),
		Range: r,
		seq:   c.seq,
		done:  make(chan struct{}),
	}

	selected := r
	c.state = State{
		Status:    StatusPending,
		CycleID:   cycle.ID,
		Range:     &selected,
		Outcome:   c.state.Outcome,
		UpdatedAt: c.now(),
	}
	c.broadcastLocked()

	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("Dashboard cycle started",
		slog.String("cycle_id", cycle.ID),
		slog.String("range", r.String()))

	go c.run(ctx, cancel, cycle)

	return cycle, nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, cycle *Cycle) {
	defer c.wg.Done()
	defer close(cycle.done)
	defer cancel()

	outcome, err := LoadComparison(ctx, c.gw, cycle.Range, c.logger)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cycle.seq != c.seq || ctx.Err() != nil {
		cycle.superseded = true
		c.logger.Debug("Dropping stale dashboard cycle", slog.String("cycle_id", cycle.ID))
		return
	}

	// The cycle is still live, so every error settles it as failed, cancellations included
	if err != nil {
		c.logger.Error("Dashboard cycle failed",
			slog.String("cycle_id", cycle.ID),
			slog.String("range", cycle.Range.String()),
			slog.Any("error", err))
		c.state = State{
			Status:    StatusFailed,
			CycleID:   cycle.ID,
			Range:     c.state.Range,
			Outcome:   c.state.Outcome,
			Error:     err.Error(),
			Err:       err,
			UpdatedAt: c.now(),
		}
	} else {
		c.state = State{
			Status:    StatusReady,
			CycleID:   cycle.ID,
			Range:     c.state.Range,
			Outcome:   outcome,
			UpdatedAt: c.now(),
		}
	}

	cycle.state = c.state
	c.broadcastLocked()
}

// broadcastLocked sends the state to every subscriber without blocking.
// A slow subscriber loses intermediate states, never the latest one.
func (c *Controller) broadcastLocked() {
	for _, ch := range c.subscribers {
		select {
		case ch <- c.state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c.state:
		default:
		}
	}
}

// Subscribe returns a channel receiving every state change, starting with the current state.
// The returned function unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	ch <- c.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
		})
	}
}

// State returns the latest published state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the last published outcome, nil before the first successful cycle
func (c *Controller) Outcome() *ComparisonOutcome {
	return c.State().Outcome
}

func (c *Controller) FunnelTotals() (analytics.FunnelTotals, bool) {
	outcome := c.Outcome()
	if outcome == nil {
		return analytics.FunnelTotals{}, false
	}
	return outcome.FunnelTotals(), true
}

func (c *Controller) ChannelTotals() (analytics.ChannelTotals, bool) {
	outcome := c.Outcome()
	if outcome == nil {
		return analytics.ChannelTotals{}, false
	}
	return outcome.ChannelTotals(), true
}

// Delta compares a metric of the last published outcome with its comparison period
func (c *Controller) Delta(m analytics.Metric) (analytics.Delta, bool) {
	outcome := c.Outcome()
	if outcome == nil {
		return analytics.Delta{}, false
	}
	return outcome.Delta(m)
}

// Close cancels the live cycle, waits for running cycles and closes all subscriptions
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}
