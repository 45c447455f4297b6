package ueba

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// logCapacity caps the persistent event log at the most recent entries;
// older events are evicted first.
const logCapacity = 100

// EventLog is the persistent, capped store behind the tracker. Append and
// Load errors are surfaced so the tracker can log and carry on; neither is
// allowed to take the tracker down.
type EventLog interface {
	Append(evt TrackedEvent) error
	Load() ([]TrackedEvent, error)
}

// FileEventLog keeps the event log as a single JSON array on disk.
type FileEventLog struct {
	mu   sync.Mutex
	path string
}

// NewFileEventLog creates a log at the given path; parent directories are
// created on first append.
func NewFileEventLog(path string) *FileEventLog {
	return &FileEventLog{path: path}
}

func (l *FileEventLog) Append(evt TrackedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.load()
	if err != nil {
		return err
	}
	stored = append(stored, evt)
	if len(stored) > logCapacity {
		stored = stored[len(stored)-logCapacity:]
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal event log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}

	// Write-then-rename keeps a crash from truncating the log.
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace event log: %w", err)
	}
	return nil
}

func (l *FileEventLog) Load() ([]TrackedEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *FileEventLog) load() ([]TrackedEvent, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	var stored []TrackedEvent
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}
	return stored, nil
}

// MemoryEventLog is an in-memory EventLog with the same capacity behavior,
// used in tests and when no log path is configured.
type MemoryEventLog struct {
	mu     sync.Mutex
	stored []TrackedEvent
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{}
}

func (l *MemoryEventLog) Append(evt TrackedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stored = append(l.stored, evt)
	if len(l.stored) > logCapacity {
		l.stored = l.stored[len(l.stored)-logCapacity:]
	}
	return nil
}

func (l *MemoryEventLog) Load() ([]TrackedEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TrackedEvent, len(l.stored))
	copy(out, l.stored)
	return out, nil
}
