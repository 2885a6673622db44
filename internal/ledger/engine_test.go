package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	book    Book
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load(context.Context) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := Book{}
	for k, v := range m.book {
		out[k] = append([]Entry(nil), v...)
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, b Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.book = b
	return nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 6, 15, 10, 0, 0, 0, time.UTC) }
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestSaveThenReport(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))
	ctx := context.Background()

	entry, err := e.Save(ctx, mustDate(t, "1-5-2025"), 3430000)
	require.NoError(t, err)
	require.Equal(t, "1-5-2025", entry.Date.String())

	rep, err := e.Report(ctx, 5)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	require.Equal(t, "1-5-2025", rep.Entries[0].Date.String())
	require.EqualValues(t, 3430000, rep.Entries[0].Amount)
	require.EqualValues(t, 3430000, rep.Total)
}

func TestSaveUsesEntryPeriodNotToday(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2026)))

	_, err := e.Save(context.Background(), mustDate(t, "1-5-2025"), 10)
	require.NoError(t, err)
	require.Contains(t, store.book, "2025-05")

	rep, err := e.Report(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, rep.Entries, "month queries are scoped to the current year")
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))

	_, err := e.Save(context.Background(), Date{Day: 31, Month: 2, Year: 2025}, 10)
	require.ErrorIs(t, err, ErrInvalidDate)
	_, err = e.Save(context.Background(), mustDate(t, "1-5-2025"), 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.Zero(t, store.saves)
	require.Empty(t, store.book)
}

func TestDeleteDateThenReport(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))
	ctx := context.Background()

	_, err := e.Save(ctx, mustDate(t, "1-5-2025"), 3430000)
	require.NoError(t, err)

	res, err := e.DeleteDate(ctx, Date{Day: 1, Month: 5, Year: 2025})
	require.NoError(t, err)
	require.True(t, res.PeriodFound)
	require.Equal(t, 1, res.Removed)

	rep, err := e.Report(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, rep.Entries)
	require.NotContains(t, store.book, "2025-05")
}

func TestDeleteDateOutcomes(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))
	ctx := context.Background()

	res, err := e.DeleteDate(ctx, Date{Day: 1, Month: 7, Year: 2025})
	require.NoError(t, err)
	require.False(t, res.PeriodFound)

	_, err = e.Save(ctx, mustDate(t, "2-7-2025"), 5)
	require.NoError(t, err)
	_, err = e.Save(ctx, mustDate(t, "3-7-2025"), 6)
	require.NoError(t, err)
	saves := store.saves

	res, err = e.DeleteDate(ctx, Date{Day: 1, Month: 7, Year: 2025})
	require.NoError(t, err)
	require.True(t, res.PeriodFound)
	require.Zero(t, res.Removed)
	require.Equal(t, saves, store.saves, "nothing removed, nothing written")

	res, err = e.DeleteDate(ctx, Date{Day: 2, Month: 7, Year: 2025})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed)
	require.Len(t, store.book["2025-07"], 1)
}

func TestDeleteMonthLeavesOtherMonths(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))
	ctx := context.Background()

	for _, d := range []string{"1-5-2025", "15-5-2025", "31-5-2025", "1-6-2025"} {
		_, err := e.Save(ctx, mustDate(t, d), 100)
		require.NoError(t, err)
	}

	period, n, err := e.DeleteMonth(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "2025-05", period.Key())
	require.Equal(t, 3, n)
	require.NotContains(t, store.book, "2025-05")
	require.Len(t, store.book["2025-06"], 1)

	_, n, err = e.DeleteMonth(ctx, 5)
	require.NoError(t, err)
	require.Zero(t, n)

	_, _, err = e.DeleteMonth(ctx, 13)
	require.ErrorIs(t, err, ErrInvalidMonth)
}

func TestReportSortsByDateStable(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))
	ctx := context.Background()

	inputs := []struct {
		date   string
		amount int64
	}{
		{"20-5-2025", 1},
		{"3-5-2025", 2},
		{"20-5-2025", 3},
		{"10-5-2025", 4},
	}
	for _, in := range inputs {
		_, err := e.Save(ctx, mustDate(t, in.date), in.amount)
		require.NoError(t, err)
	}

	rep, err := e.Report(ctx, 5)
	require.NoError(t, err)
	var amounts []int64
	for _, en := range rep.Entries {
		amounts = append(amounts, en.Amount)
	}
	require.Equal(t, []int64{2, 4, 1, 3}, amounts)
	require.EqualValues(t, 10, rep.Total)
	require.Len(t, store.book["2025-05"], 4, "report must not reorder the stored list")
	require.EqualValues(t, 1, store.book["2025-05"][0].Amount)
}

func TestEngineSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("disk full")
	e := NewEngine(&memStore{saveErr: boom}, WithClock(fixedClock(2025)))
	_, err := e.Save(context.Background(), mustDate(t, "1-5-2025"), 10)
	require.ErrorIs(t, err, boom)

	e = NewEngine(&memStore{loadErr: boom}, WithClock(fixedClock(2025)))
	_, err = e.Report(context.Background(), 5)
	require.ErrorIs(t, err, boom)
}

func TestEngineSerializesConcurrentSaves(t *testing.T) {
	store := &memStore{}
	e := NewEngine(store, WithClock(fixedClock(2025)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Save(context.Background(), Date{Day: 1, Month: 5, Year: 2025}, 1); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	require.Len(t, store.book["2025-05"], 20)
}
