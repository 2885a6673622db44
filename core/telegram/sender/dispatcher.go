// Package sender delivers outbound Telegram calls from a small worker pool.
// Calls for one chat always run on the same worker, in submission order.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/superbot/core/logger"
	"github.com/m3rciful/superbot/core/netutil"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the chat's worker queue has no room.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes the worker pool. Zero values select defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 30 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher owns one queue per worker. A job's key (the chat id) selects
// the queue.
type Dispatcher struct {
	opts   Options
	queues []chan job
	stop   chan struct{}

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	failed atomic.Uint64
}

// NewDispatcher starts the workers. With the default MaxRetries of zero a
// failed delivery is logged and dropped.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	depth := max(opts.QueueSize/opts.Workers, 1)

	d := &Dispatcher{
		opts:   opts,
		queues: make([]chan job, opts.Workers),
		stop:   make(chan struct{}),
	}
	for i := range d.queues {
		q := make(chan job, depth)
		d.queues[i] = q
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range q {
				d.deliver(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run on the worker owning key without blocking. run may
// be invoked more than once when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queues[d.queueIndex(key)] <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) queueIndex(key int64) int {
	n := int64(len(d.queues))
	return int(((key % n) + n) % n)
}

// ErrorCount reports how many jobs were dropped after failing.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close rejects new jobs, lets queued ones finish and waits for the workers.
// Pending retry backoffs are cut short.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.stop)
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	base := slices.Clip(jobAttrs(j))
	logger.Debug(j.ctx, component, "send.start", base...)

	attempts := d.opts.MaxRetries + 1
	var err error
	attempt := 1
	for ; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = j.run(); err == nil {
			attrs := append(base, slog.Int64("duration_ms", logger.Took(start).Milliseconds()))
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempt", attempt))
			}
			logger.Debug(j.ctx, component, "send.success", attrs...)
			return
		}
		if attempt == attempts || !netutil.ShouldRetry(err) {
			break
		}
		if werr := d.backoff(ctx, attempt); werr != nil {
			err = werr
			break
		}
		logger.Debug(j.ctx, component, "send.retry.backoff",
			append(base,
				slog.Int("attempt", attempt),
				slog.Int64("backoff_ms", d.delay(attempt).Milliseconds()),
			)...,
		)
	}

	d.failed.Add(1)
	logger.Error(j.ctx, component, "send.fail",
		append(base,
			slog.String("err", sanitizeErrorMessage(err)),
			slog.String("err_code", classifyError(err)),
			slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
			slog.Int("attempts", min(attempt, attempts)),
		)...,
	)
}

func (d *Dispatcher) delay(attempt int) time.Duration {
	return d.opts.RetryBackoff * time.Duration(attempt)
}

// backoff sleeps before the next attempt. It returns early without error when
// the dispatcher closes and with ctx's error when the job deadline passes.
func (d *Dispatcher) backoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(d.delay(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stop:
	case <-t.C:
	}
	return nil
}

func jobAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}
