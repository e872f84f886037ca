//
//
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/radio-control/wsc/internal/command"
	"github.com/radio-control/wsc/internal/station"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	Timestamp time.Time              `json:"ts"`
	User      string                 `json:"user"`
	ModemID   string                 `json:"modemId"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params"`
	Outcome   string                 `json:"outcome"`
	Code      string                 `json:"code"`
}

// Logger implements the audit logging functionality.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
}

// NewLogger creates a new audit logger writing JSONL entries under logDir.
func NewLogger(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filePath := filepath.Join(logDir, "audit.jsonl")

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		filePath: filePath,
		file:     file,
	}, nil
}

// LogAction logs an audit record for a command action.
func (l *Logger) LogAction(ctx context.Context, action, modemID, result string, latency time.Duration) {
	entry := AuditEntry{
		Timestamp: time.Now().UTC(),
		User:      userFromContext(ctx),
		ModemID:   modemID,
		Action:    action,
		Params:    map[string]interface{}{"latencyMs": latency.Milliseconds()},
		Outcome:   result,
		Code:      result,
	}

	l.writeEntry(entry)
}

// LogControlAction logs a control action with detailed parameters.
// Credentials never belong in params; callers pass SSIDs but not keys.
func (l *Logger) LogControlAction(ctx context.Context, action, modemID string, params map[string]interface{}, outcome string, err error) {
	entry := AuditEntry{
		Timestamp: time.Now().UTC(),
		User:      userFromContext(ctx),
		ModemID:   modemID,
		Action:    action,
		Params:    params,
		Outcome:   outcome,
		Code:      codeFromError(err),
	}

	l.writeEntry(entry)
}

// writeEntry writes an audit entry to the log file.
func (l *Logger) writeEntry(entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal audit entry: %v\n", err)
		return
	}

	if _, err := l.file.Write(append(jsonData, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit entry: %v\n", err)
		return
	}

	if err := l.file.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sync audit log: %v\n", err)
	}
}

// userFromContext extracts the authenticated subject from the request
// context, as populated by the auth middleware.
func userFromContext(ctx context.Context) string {
	if claims, ok := ctx.Value("claims").(map[string]interface{}); ok {
		if subject, ok := claims["sub"].(string); ok {
			return subject
		}
	}

	return "unknown"
}

// codeFromError maps the station and command error taxonomy to
// standardized audit codes.
func codeFromError(err error) string {
	switch {
	case err == nil:
		return "SUCCESS"
	case errors.Is(err, station.ErrInvalidSSIDLength),
		errors.Is(err, station.ErrInvalidPasswordLength):
		return "INVALID_RANGE"
	case errors.Is(err, station.ErrUnexpectedWouldBlock):
		return "INTERNAL"
	case errors.Is(err, station.ErrModeFailed),
		errors.Is(err, station.ErrConnectFailed),
		errors.Is(err, station.ErrConfigStoreFailed),
		errors.Is(err, command.ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, command.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, command.ErrInvalidParameter):
		return "BAD_REQUEST"
	case errors.Is(err, context.DeadlineExceeded):
		return "BUSY"
	default:
		return "ERROR"
	}
}

// Close closes the audit logger and its file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// GetFilePath returns the path to the audit log file.
func (l *Logger) GetFilePath() string {
	return l.filePath
}

// Rotate rotates the audit log file.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	timestamp := time.Now().Format("20060102-150405")
	newFilePath := fmt.Sprintf("%s.%s", l.filePath, timestamp)

	if err := os.Rename(l.filePath, newFilePath); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.file = file
	return nil
}
