package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/superbot/core/logger"
)

// Store loads and saves the whole book. It is the only component doing ledger I/O.
type Store interface {
	Load(ctx context.Context) (Book, error)
	Save(ctx context.Context, book Book) error
}

// Report is the sorted listing of one period.
type Report struct {
	Period  Period
	Entries []Entry
	Total   int64
}

// DateDeletion describes the outcome of DeleteDate.
type DateDeletion struct {
	Date    Date
	Removed int
	// PeriodFound is false when the date's period had no entries at all.
	PeriodFound bool
}

// Engine applies ledger commands. Every operation runs load, mutate, save
// under one mutex so concurrent commands never interleave.
type Engine struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for timestamps and the current year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CurrentYear is the year month-only commands are scoped to.
func (e *Engine) CurrentYear() int {
	return e.now().Year()
}

// Save appends an entry for date and persists the book.
func (e *Engine) Save(ctx context.Context, date Date, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	if _, err := NewDate(date.Day, date.Month, date.Year); err != nil {
		return Entry{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	book, err := e.load(ctx)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Date: date, Amount: amount, RecordedAt: e.now()}
	book.Append(entry)
	if err := e.save(ctx, book, "save"); err != nil {
		return Entry{}, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.save",
		slog.String("status", "ok"),
		slog.String("period", date.Period().Key()),
		slog.String("date", date.String()),
	)
	return entry, nil
}

// Report lists the entries of month in the current year, sorted by date.
// Entries sharing a date keep their insertion order.
func (e *Engine) Report(ctx context.Context, month int) (Report, error) {
	period, err := NewPeriod(e.CurrentYear(), month)
	if err != nil {
		return Report{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	book, err := e.load(ctx)
	if err != nil {
		return Report{}, err
	}
	src := book.Entries(period)
	entries := make([]Entry, len(src))
	copy(entries, src)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Compare(entries[j].Date) < 0
	})

	var total int64
	for _, en := range entries {
		total += en.Amount
	}
	return Report{Period: period, Entries: entries, Total: total}, nil
}

// DeleteMonth removes the whole period of month in the current year and
// reports how many entries were removed. Nothing is written when the period
// is empty.
func (e *Engine) DeleteMonth(ctx context.Context, month int) (Period, int, error) {
	period, err := NewPeriod(e.CurrentYear(), month)
	if err != nil {
		return Period{}, 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	book, err := e.load(ctx)
	if err != nil {
		return period, 0, err
	}
	removed := book.RemovePeriod(period)
	if removed == 0 {
		return period, 0, nil
	}
	if err := e.save(ctx, book, "delete_month"); err != nil {
		return period, 0, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.delete",
		slog.String("status", "ok"),
		slog.String("period", period.Key()),
		slog.Int("count", removed),
	)
	return period, removed, nil
}

// DeleteDate removes every entry recorded for date.
func (e *Engine) DeleteDate(ctx context.Context, date Date) (DateDeletion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := DateDeletion{Date: date}
	book, err := e.load(ctx)
	if err != nil {
		return res, err
	}
	res.Removed, res.PeriodFound = book.RemoveDate(date)
	if res.Removed == 0 {
		return res, nil
	}
	if err := e.save(ctx, book, "delete_date"); err != nil {
		return res, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.delete",
		slog.String("status", "ok"),
		slog.String("date", date.String()),
		slog.Int("count", res.Removed),
	)
	return res, nil
}

func (e *Engine) load(ctx context.Context) (Book, error) {
	book, err := e.store.Load(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("ledger: load: %w", err)
	}
	if book == nil {
		book = Book{}
	}
	return book, nil
}

func (e *Engine) save(ctx context.Context, book Book, op string) error {
	book.Compact()
	if err := e.store.Save(ctx, book); err != nil {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.persist",
			slog.String("status", "fail"),
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("ledger: %s: %w", op, err)
	}
	return nil
}
