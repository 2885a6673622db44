package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists the book in the ledger_entries table. It keeps the
// whole-book contract: Load reads every row, Save replaces every row in one
// transaction.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type entryRow struct {
	ID         uuid.UUID `db:"id"`
	Period     string    `db:"period"`
	Position   int       `db:"position"`
	Day        int       `db:"day"`
	Month      int       `db:"month"`
	Year       int       `db:"year"`
	Amount     int64     `db:"amount"`
	RecordedAt time.Time `db:"recorded_at"`
}

const (
	selectEntries = `SELECT period, position, day, month, year, amount, recorded_at
FROM ledger_entries ORDER BY period, position`
	deleteEntries = `DELETE FROM ledger_entries`
	insertEntry   = `INSERT INTO ledger_entries (id, period, position, day, month, year, amount, recorded_at)
VALUES (:id, :period, :position, :day, :month, :year, :amount, :recorded_at)`
)

// Load reads all rows into a book.
func (s *PostgresStore) Load(ctx context.Context) (Book, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, selectEntries); err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	return rowsToBook(rows), nil
}

// Save replaces the table contents with book.
func (s *PostgresStore) Save(ctx context.Context, book Book) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteEntries); err != nil {
		return fmt.Errorf("clear ledger entries: %w", err)
	}
	if rows := bookToRows(book); len(rows) > 0 {
		if _, err = tx.NamedExecContext(ctx, insertEntry, rows); err != nil {
			return fmt.Errorf("insert ledger entries: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func rowsToBook(rows []entryRow) Book {
	book := Book{}
	for _, r := range rows {
		book[r.Period] = append(book[r.Period], Entry{
			Date:       Date{Day: r.Day, Month: r.Month, Year: r.Year},
			Amount:     r.Amount,
			RecordedAt: r.RecordedAt,
		})
	}
	return book
}

func bookToRows(book Book) []entryRow {
	var rows []entryRow
	for key, entries := range book {
		for i, e := range entries {
			rows = append(rows, entryRow{
				ID:         uuid.New(),
				Period:     key,
				Position:   i,
				Day:        e.Date.Day,
				Month:      e.Date.Month,
				Year:       e.Date.Year,
				Amount:     e.Amount,
				RecordedAt: e.RecordedAt,
			})
		}
	}
	return rows
}
