// Package sink writes rendered traces to the console or to a log file.
package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrOpen is wrapped by errors returned when a log file cannot be opened.
var ErrOpen = errors.New("sink: cannot open log file")

// Stdout is where console output goes.
var Stdout io.Writer = os.Stdout

// Target selects where Emit writes.
type Target struct {
	Path string // log file to append to; empty means Stdout
}

// Console reports whether the target is the console stream.
func (t Target) Console() bool {
	return t.Path == ""
}

// fileLocks serializes writers per log file so concurrent traces never interleave.
var fileLocks sync.Map // string -> *sync.Mutex

// consoleMu serializes writes to Stdout.
var consoleMu sync.Mutex

func lockFor(path string) *sync.Mutex {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = filepath.Clean(abs)
	}
	mu, _ := fileLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Emit writes text followed by a newline to the target. When the log file
// cannot be opened the text goes to Stdout instead; the failure is logged and
// returned either way.
func Emit(text string, t Target, logger *slog.Logger) error {
	if t.Console() {
		return writeConsole(text)
	}

	err := appendFile(t.Path, text)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrOpen) {
		if logger != nil {
			logger.Warn("backtrace: log file write failed", "path", t.Path, "error", err)
		}
		return err
	}
	if logger != nil {
		logger.Warn("backtrace: log file unavailable, writing to stdout", "path", t.Path, "error", err)
	}
	if cerr := writeConsole(text); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

func appendFile(path, text string) error {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	// Single write per trace keeps each record contiguous.
	_, werr := f.Write([]byte(text + "\n"))
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("sink: write %s: %w", path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("sink: close %s: %w", path, cerr)
	}
	return nil
}

func writeConsole(text string) error {
	consoleMu.Lock()
	defer consoleMu.Unlock()

	if _, err := io.WriteString(Stdout, text+"\n"); err != nil {
		return fmt.Errorf("sink: write stdout: %w", err)
	}
	return nil
}
