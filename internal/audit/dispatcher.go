package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering. BufferSize counts records, not events.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher queues operation records and expands them into sink events on a
// single worker goroutine. A nil Dispatcher is valid and records nothing.
type Dispatcher struct {
	cfg  Config
	sink Sink
	now  func() time.Time

	queue   chan Record
	stop    chan struct{}
	worker  sync.WaitGroup
	dropped atomic.Uint64
	closed  atomic.Bool
	once    sync.Once
}

// NewDispatcher returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		now:   time.Now,
		queue: make(chan Record, cfg.BufferSize),
		stop:  make(chan struct{}),
	}
	d.worker.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.worker.Done()

	for {
		select {
		case r := <-d.queue:
			d.deliver(r)
		case <-d.stop:
			for {
				select {
				case r := <-d.queue:
					d.deliver(r)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(r Record) {
	for _, ev := range r.Events() {
		d.sink.Emit(context.Background(), ev)
	}
}

// Record queues r. With DropIfFull a full queue drops every event of r and
// counts them; otherwise Record waits for space, ctx or Close. It reports
// whether r was queued.
func (d *Dispatcher) Record(ctx context.Context, r Record) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.At.IsZero() {
		r.At = d.now()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- r:
			return true
		case <-d.stop:
			return false
		default:
			d.dropped.Add(uint64(r.size()))
			return false
		}
	}

	select {
	case d.queue <- r:
		return true
	case <-ctx.Done():
		d.dropped.Add(uint64(r.size()))
		return false
	case <-d.stop:
		return false
	}
}

// Close delivers everything already queued and stops the worker. It is
// idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.worker.Wait()
	})
}

// Dropped returns the number of events lost to a full queue or a cancelled
// context.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
