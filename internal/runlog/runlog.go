// Package runlog records the events of one processing run to a per-run log
// file tagged with a transaction id.
//
// A run log is opened at the start of a batch, appended to for every event
// and closed when the batch ends. Callers pass it explicitly; there is no
// package level state.
package runlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultDirPerm is used when creating the log directory
	DefaultDirPerm = 0o750

	txnSuffixLen = 11
)

// RunLog is the logging context of a single run
type RunLog struct {
	txnID  string
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	closer io.Closer
	closed bool
}

// NewTransactionID returns an id of the form txn-<unix millis>-<11 chars>
func NewTransactionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:txnSuffixLen]
	return fmt.Sprintf("txn-%d-%s", time.Now().UnixMilli(), suffix)
}

// Open creates <dir>/<tool>_<txn>.log and writes the run header
func Open(dir, tool string, level slog.Level) (*RunLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("log directory cannot be empty")
	}
	if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create log directory %s: %w", dir, err)
	}

	txnID := NewTransactionID()
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", tool, txnID))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("cannot create log file: %w", err)
	}

	r := newRunLog(txnID, f, level)
	r.path = path
	r.closer = f
	r.Info("run started", "tool", tool)
	return r, nil
}

// New writes the run log to w; closing it does not close w
func New(w io.Writer, level slog.Level) *RunLog {
	return newRunLog(NewTransactionID(), w, level)
}

// Nop returns a run log that discards every event
func Nop() *RunLog {
	return newRunLog(NewTransactionID(), io.Discard, slog.LevelError+1)
}

func newRunLog(txnID string, w io.Writer, level slog.Level) *RunLog {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &RunLog{
		txnID:  txnID,
		logger: slog.New(handler).With("txn", txnID),
	}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// TransactionID returns the id shared by every event of this run
func (r *RunLog) TransactionID() string {
	if r == nil {
		return ""
	}
	return r.txnID
}

// Path returns the log file path, empty for writer backed logs
func (r *RunLog) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Info records a top level event
func (r *RunLog) Info(msg string, args ...any) {
	r.log(slog.LevelInfo, msg, false, args)
}

// Step records a sub step of the current event
func (r *RunLog) Step(msg string, args ...any) {
	r.log(slog.LevelInfo, msg, true, args)
}

// Debug records a diagnostic sub step
func (r *RunLog) Debug(msg string, args ...any) {
	r.log(slog.LevelDebug, msg, true, args)
}

// Error records a failure
func (r *RunLog) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	r.log(slog.LevelError, msg, false, args)
}

func (r *RunLog) log(level slog.Level, msg string, subStep bool, args []any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if subStep {
		args = append(args, "sub_step", true)
	}
	r.logger.Log(context.Background(), level, msg, args...)
}

// Close writes the run footer and releases the log file
func (r *RunLog) Close() error {
	if r == nil {
		return nil
	}
	r.log(slog.LevelInfo, "run finished", false, nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
