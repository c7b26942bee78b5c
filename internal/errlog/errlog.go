// Package errlog appends timestamped lines to a day-partitioned error log.
//
// Each call opens <dir>/errorlog_<YYYY-MM-DD>.txt in append mode, writes one
// entry and closes the file again. Dates are civil dates of the clock's zone.
package errlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrSnakeDoc/notice/internal/clock"
	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/metrics"
	"github.com/MrSnakeDoc/notice/internal/utils"
)

const filePerm = 0o644

// Sink is safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	dir    string
	clock  *clock.Clock
	logger logger.Logger
}

// New creates dir if needed and returns a sink writing into it.
func New(dir string, c *clock.Clock, log logger.Logger) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}
	return &Sink{dir: dir, clock: c, logger: log}, nil
}

// Path returns the file entries for today are appended to.
func (s *Sink) Path() string {
	return filepath.Join(s.dir, FileName(s.clock.Now(clock.Day)))
}

// FileName returns the log file name for a day label.
func FileName(day string) string {
	return "errorlog_" + day + ".txt"
}

// Write appends message, and detail on an indented line when it is not empty.
func (s *Sink) Write(message, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Time()
	ts := s.clock.Format(clock.Second, now)
	var line string
	if detail != "" {
		line = fmt.Sprintf("\n%s: %s\n   %s\n", ts, message, detail)
	} else {
		line = fmt.Sprintf("%s: %s\n", ts, message)
	}

	path := filepath.Join(s.dir, FileName(s.clock.Format(clock.Day, now)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	defer utils.MustClose(f, s.logger)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to error log: %w", err)
	}

	metrics.ErrorLogLines.Inc()
	s.logger.Warn(message,
		logger.String("detail", detail),
		logger.String("file", path))
	return nil
}

// WriteError is Write with err rendered as the detail line.
func (s *Sink) WriteError(message string, err error) error {
	if err == nil {
		return s.Write(message, "")
	}
	return s.Write(message, err.Error())
}
