package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/m3rciful/superbot/core/logger"
)

// DefaultFile is the ledger file name used when none is configured.
const DefaultFile = "keuangan.json"

// FileStore keeps the book as one pretty-printed JSON object on disk.
//
// Content it cannot decode is kept aside by Load and written back by Save:
// top-level values that are not arrays, and array items that are not
// entries. The engine serializes Load and Save; mu guards the kept-aside
// content for callers that use the store directly.
type FileStore struct {
	path string

	mu      sync.Mutex
	foreign map[string]json.RawMessage   // keys whose value is not an array
	stray   map[string][]json.RawMessage // undecodable items per period key
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the whole file. A missing file, invalid JSON or a top level that
// is not an object all load as an empty book. Each key is decoded on its own;
// whatever does not decode stays out of the book but is preserved for Save.
func (s *FileStore) Load(ctx context.Context) (Book, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.keep(nil, nil)
		return Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		reason := "not an object"
		if err != nil {
			reason = err.Error()
		}
		logger.LogEvent(ctx, logger.Ledger, slog.LevelWarn, "ledger.file.reset",
			slog.String("path", s.path),
			slog.String("cause", reason),
		)
		s.keep(nil, nil)
		return Book{}, nil
	}

	book := make(Book, len(top))
	foreign := map[string]json.RawMessage{}
	stray := map[string][]json.RawMessage{}
	for key, value := range top {
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil || items == nil {
			foreign[key] = value
			continue
		}
		for _, item := range items {
			var e Entry
			if err := json.Unmarshal(item, &e); err != nil {
				stray[key] = append(stray[key], item)
				continue
			}
			book[key] = append(book[key], e)
		}
	}
	book.Compact()
	s.keep(foreign, stray)

	if n := len(foreign) + countItems(stray); n > 0 {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelWarn, "ledger.file.skip",
			slog.String("path", s.path),
			slog.Int("count", n),
			slog.Int("keys", len(foreign)),
		)
	}
	return book, nil
}

// Save overwrites the file with the whole book plus the content Load could
// not decode, indented by two spaces. Keys of the book win over foreign keys
// of the same name.
func (s *FileStore) Save(ctx context.Context, book Book) error {
	out := s.merge(book)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelDebug, "ledger.file.write",
		slog.String("path", s.path),
		slog.Int("bytes", len(data)),
		slog.Int("count", len(book)),
	)
	return nil
}

func (s *FileStore) keep(foreign map[string]json.RawMessage, stray map[string][]json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foreign, s.stray = foreign, stray
}

func (s *FileStore) merge(book Book) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(book)+len(s.foreign)+len(s.stray))
	for key, raw := range s.foreign {
		out[key] = raw
	}
	for key, entries := range book {
		if len(entries) > 0 {
			out[key] = entries
		}
	}
	// Undecodable items follow the period's entries, or stand alone when the
	// period has no entries left.
	for key, items := range s.stray {
		list := make([]any, 0, len(book[key])+len(items))
		for _, e := range book[key] {
			list = append(list, e)
		}
		for _, item := range items {
			list = append(list, item)
		}
		out[key] = list
	}
	return out
}

func countItems(m map[string][]json.RawMessage) int {
	n := 0
	for _, items := range m {
		n += len(items)
	}
	return n
}
