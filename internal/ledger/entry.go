package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one recorded income item. Entries are never edited, only
// appended or removed whole.
type Entry struct {
	Date       Date
	Amount     int64
	RecordedAt time.Time
}

type entryJSON struct {
	Tanggal   string `json:"tanggal"`
	Jumlah    int64  `json:"jumlah"`
	Timestamp int64  `json:"timestamp"`
}

// MarshalJSON writes {"tanggal":"D-M-Y","jumlah":N,"timestamp":epochMillis}.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Tanggal:   e.Date.String(),
		Jumlah:    e.Amount,
		Timestamp: e.RecordedAt.UnixMilli(),
	})
}

// UnmarshalJSON reads the persisted form. The stored date keeps its day as
// written, matching how deletions compare dates.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parts, err := splitDate(raw.Tanggal)
	if err != nil || len(parts) != 3 {
		return fmt.Errorf("ledger: entry date %q: %w", raw.Tanggal, ErrDateFormat)
	}
	*e = Entry{
		Date:       Date{Day: parts[0], Month: parts[1], Year: parts[2]},
		Amount:     raw.Jumlah,
		RecordedAt: time.UnixMilli(raw.Timestamp),
	}
	return nil
}

// Book maps period keys ("YYYY-MM") to insertion-ordered entries.
// A key is present only while its list is non-empty.
type Book map[string][]Entry

// Append adds e under its own period.
func (b Book) Append(e Entry) {
	key := e.Date.Period().Key()
	b[key] = append(b[key], e)
}

// Entries returns the entries of p in insertion order.
func (b Book) Entries(p Period) []Entry {
	return b[p.Key()]
}

// RemovePeriod drops the whole period and reports how many entries it held.
func (b Book) RemovePeriod(p Period) int {
	n := len(b[p.Key()])
	delete(b, p.Key())
	return n
}

// RemoveDate drops every entry recorded for d. found is false when the
// period itself is absent.
func (b Book) RemoveDate(d Date) (removed int, found bool) {
	key := d.Period().Key()
	entries, ok := b[key]
	if !ok {
		return 0, false
	}
	kept := entries[:0:0]
	for _, e := range entries {
		if e.Date == d {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		delete(b, key)
	} else {
		b[key] = kept
	}
	return removed, true
}

// Compact deletes keys whose lists are empty.
func (b Book) Compact() {
	for k, v := range b {
		if len(v) == 0 {
			delete(b, k)
		}
	}
}
