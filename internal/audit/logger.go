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

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/modem-control/mnr/internal/config"
	"github.com/modem-control/mnr/internal/modem"
)

// Audited action names.
const (
	ActionRegisterAuto   = "registerAuto"
	ActionRegisterManual = "registerManual"
	ActionListOperators  = "listOperators"
	ActionStrength       = "signalStrength"
	ActionSelectModem    = "selectModem"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp     time.Time              `json:"ts"`
	CorrelationID string                 `json:"correlationId"`
	User          string                 `json:"user"`
	ModemID       string                 `json:"modemId"`
	Action        string                 `json:"action"`
	Params        map[string]interface{} `json:"params,omitempty"`
	Outcome       string                 `json:"outcome"`
	Code          string                 `json:"code"`
}

// Logger writes audit entries as JSON lines to a size-rotated file.
type Logger struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

type userKey struct{}

// WithUser attaches the authenticated subject to the context for audit.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// NewLogger creates an audit logger under cfg.Dir.
func NewLogger(cfg config.AuditConfig) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "audit.jsonl"),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		},
	}, nil
}

// LogAction records one control action and its outcome.
func (l *Logger) LogAction(ctx context.Context, action, modemID string, params map[string]interface{}, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	entry := Entry{
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.NewString(),
		User:          userFrom(ctx),
		ModemID:       modemID,
		Action:        action,
		Params:        params,
		Outcome:       outcome,
		Code:          codeFrom(err),
	}
	l.write(entry)
}

func (l *Logger) write(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal audit entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write audit entry: %v\n", err)
	}
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

func userFrom(ctx context.Context) string {
	if user, ok := ctx.Value(userKey{}).(string); ok && user != "" {
		return user
	}
	return "unknown"
}

// codeFrom maps an operation error to the audit result code.
func codeFrom(err error) string {
	switch {
	case err == nil:
		return "SUCCESS"
	case errors.Is(err, modem.ErrNotSupported):
		return "NOT_SUPPORTED"
	case errors.Is(err, modem.ErrFailure):
		return "FAILURE"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}
