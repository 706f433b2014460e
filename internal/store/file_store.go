package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/sparkfn/webhook-listener/internal/domain"
)

const logFileName = "events.jsonl"

// FileStore keeps one append-only newline-delimited JSON log per namespace
// plus an in-memory mirror of each log. The mirror is rebuilt from disk at
// construction, so the log file is the source of truth across restarts.
//
// All mutation goes through a per-namespace mutex: an append and a clear on
// the same namespace never interleave mid-write.
type FileStore struct {
	dataDir    string
	log        *zap.Logger
	namespaces map[string]*namespaceLog
}

type namespaceLog struct {
	mu        sync.Mutex
	file      *os.File
	events    []*domain.EventRecord
	lastStamp string
}

// NewFileStore opens (creating if needed) the log for every configured
// namespace and loads its history. A line that fails to decode is fatal,
// unless it is a trailing line without a newline: that is the signature of
// a crash mid-append and is truncated away instead.
func NewFileStore(dataDir string, namespaces []string, log *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		dataDir:    dataDir,
		log:        log,
		namespaces: make(map[string]*namespaceLog, len(namespaces)),
	}

	for _, ns := range namespaces {
		nl, err := s.openNamespace(ns)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open namespace %q: %w", ns, err)
		}
		s.namespaces[ns] = nl
	}

	return s, nil
}

func (s *FileStore) openNamespace(ns string) (*namespaceLog, error) {
	dir := filepath.Join(s.dataDir, ns)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create namespace dir: %w", err)
	}

	path := filepath.Join(dir, logFileName)
	events, keep, repair, err := s.loadLog(ns, path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Drop a partial trailing line left by a crash so the next append
	// starts on a clean line.
	if err := file.Truncate(keep); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to truncate partial line: %w", err)
	}

	// A final line that decoded fine but lost its newline gets the newline
	// back, so the next append cannot splice onto it.
	if repair {
		if _, err := file.Write([]byte{'\n'}); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to repair log file: %w", err)
		}
	}

	s.log.Info("Namespace log loaded",
		zap.String("namespace", ns),
		zap.Int("events", len(events)))

	nl := &namespaceLog{file: file, events: events}
	if len(events) > 0 {
		nl.lastStamp = events[len(events)-1].Timestamp
	}
	return nl, nil
}

// loadLog reads the log line-by-line. It returns the decoded events, the
// byte offset through the last decodable line, and whether the final line
// decoded but is missing its newline.
func (s *FileStore) loadLog(ns, path string) ([]*domain.EventRecord, int64, bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []*domain.EventRecord{}, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read log file: %w", err)
	}

	events := []*domain.EventRecord{}
	var offset int64
	for len(content) > 0 {
		line, rest, found := bytes.Cut(content, []byte{'\n'})
		lineLen := int64(len(line))
		if found {
			lineLen++
		}

		if len(bytes.TrimSpace(line)) > 0 {
			var ev domain.EventRecord
			if err := json.Unmarshal(line, &ev); err != nil {
				if !found {
					// Crash mid-append: an incomplete final line is
					// expected and safe to discard.
					s.log.Warn("Dropping partial trailing log line",
						zap.String("namespace", ns),
						zap.Int("bytes", len(line)))
					return events, offset, false, nil
				}
				return nil, 0, false, fmt.Errorf("corrupt log line at offset %d: %w", offset, err)
			}
			events = append(events, &ev)

			if !found {
				return events, offset + lineLen, true, nil
			}
		}

		offset += lineLen
		content = rest
	}

	return events, offset, false, nil
}

// Append stamps the event, serializes it onto the namespace log, then
// mirrors it in memory. The timestamp is assigned under the namespace lock
// so it is monotone in stored order even when captures race. The durable
// write fully precedes the cache update: a failed write leaves the cache
// untouched, and the file is rolled back to the previous line boundary so
// a later append cannot splice onto partial bytes.
func (s *FileStore) Append(ctx context.Context, event *domain.EventRecord) error {
	nl, ok := s.namespaces[event.Namespace]
	if !ok {
		return domain.ErrNamespaceNotFound
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	// The layout is fixed-width, so a string compare orders stamps. Clamp
	// against the previous stamp in case the clock steps backwards.
	stamp := time.Now().UTC().Format(domain.TimestampLayout)
	if stamp < nl.lastStamp {
		stamp = nl.lastStamp
	}
	event.Timestamp = stamp

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	line = append(line, '\n')

	pos, err := nl.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	if _, err := nl.file.Write(line); err != nil {
		if truncErr := nl.file.Truncate(pos); truncErr != nil {
			s.log.Error("Failed to roll back partial append",
				zap.String("namespace", event.Namespace),
				zap.Error(truncErr))
		}
		return fmt.Errorf("failed to append event: %w", err)
	}

	nl.events = append(nl.events, event)
	nl.lastStamp = stamp
	return nil
}

// List returns the in-memory mirror for the namespace in arrival order.
func (s *FileStore) List(ns string) ([]*domain.EventRecord, error) {
	nl, ok := s.namespaces[ns]
	if !ok {
		return nil, domain.ErrNamespaceNotFound
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()

	events := make([]*domain.EventRecord, len(nl.events))
	copy(events, nl.events)
	return events, nil
}

// Clear truncates the namespace log to empty and resets the mirror.
func (s *FileStore) Clear(ns string) error {
	nl, ok := s.namespaces[ns]
	if !ok {
		return domain.ErrNamespaceNotFound
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()

	if err := nl.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}

	nl.events = nl.events[:0]
	nl.lastStamp = ""
	return nil
}

// Close closes every namespace log file.
func (s *FileStore) Close() error {
	var firstErr error
	for ns, nl := range s.namespaces {
		nl.mu.Lock()
		if err := nl.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log for %q: %w", ns, err)
		}
		nl.mu.Unlock()
	}
	return firstErr
}
