package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// defaultWindow is how far back processing reaches when no run was recorded.
const defaultWindow = 24 * time.Hour

// Clock persists the timestamp of the last fully successful run.
type Clock struct {
	path string
}

// NewClock creates a run clock backed by the file at path
func NewClock(path string) *Clock {
	return &Clock{path: path}
}

// Load returns the recorded timestamp. A missing file yields the default
// window of 24 hours before now; corrupt content does the same and heals on
// the next Save.
func (c *Clock) Load(now time.Time) (time.Time, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return now.Add(-defaultWindow), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last run file: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return now.Add(-defaultWindow), nil
	}
	return ts, nil
}

// Save records t as the last successful run
func (c *Clock) Save(t time.Time) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	line := t.UTC().Format(time.RFC3339Nano) + "\n"
	if err := os.WriteFile(c.path, []byte(line), 0644); err != nil {
		return fmt.Errorf("writing last run file: %w", err)
	}
	return nil
}
