// Package notify delivers order events to their audience on a bounded pool of
// workers. Delivery is best effort: Notify never blocks, and when the queue
// is full the event is dropped with a warning.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MikeMC777/marketplace-ordenes/internal/logger"
)

const (
	OrderPlaced        = "order.placed"
	OrderCancelled     = "order.cancelled"
	OrderConfirmed     = "order.confirmed"
	OrderShipped       = "order.shipped"
	OrderStatusChanged = "order.status_changed"
)

var (
	ErrQueueFull = errors.New("notify: queue is full")
	ErrClosed    = errors.New("notify: dispatcher is closed")
)

type Event struct {
	Name     string    `json:"event"`
	OrderID  string    `json:"order_id"`
	Status   string    `json:"status,omitempty"`
	Audience []string  `json:"audience"`
	At       time.Time `json:"at"`
}

type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	sinks   []Sink
	tasks   chan Event
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	timeout time.Duration
}

// NewDispatcher starts workers goroutines with a queue twice that size.
func NewDispatcher(workers int, sinks ...Sink) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{
		sinks:   sinks,
		tasks:   make(chan Event, workers*2),
		timeout: 5 * time.Second,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Notify enqueues ev without blocking. ctx only supplies the logger.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := d.submit(ev); err != nil {
		logger.FromCtx(ctx).Warn("notification dropped",
			"event", ev.Name, "order_id", ev.OrderID, "err", err)
	}
}

func (d *Dispatcher) submit(ev Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.tasks <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Shutdown() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.tasks)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.tasks {
		for _, s := range d.sinks {
			d.deliver(s, ev)
		}
	}
}

// deliver recovers from a panicking sink so the worker survives.
func (d *Dispatcher) deliver(s Sink, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("notification sink panicked", "event", ev.Name, "order_id", ev.OrderID, "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := s.Deliver(ctx, ev); err != nil {
		logger.L.Warn("notification delivery failed", "event", ev.Name, "order_id", ev.OrderID, "err", err)
	}
}
