package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventRunStart  AuditEventType = "run.start"
	AuditEventRunEnd    AuditEventType = "run.end"
	AuditEventRunError  AuditEventType = "run.error"
	AuditEventPassStart AuditEventType = "pass.start"
	AuditEventPassEnd   AuditEventType = "pass.end"
	AuditEventDecision  AuditEventType = "bubble.decision"
	AuditEventStore     AuditEventType = "graph.store"
	AuditEventFetch     AuditEventType = "graph.fetch"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   AuditEventType         `json:"event_type"`
	SessionID   string                 `json:"session_id"`
	Round       int                    `json:"round,omitempty"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration_ms,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
}

// AuditLogger writes one JSON object per line for every run, pass and
// bubble decision, so a simplification can be replayed and inspected.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"; empty means stderr
	SessionID  string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stderr",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		enabled:   config.Enabled,
	}, nil
}

// NewAuditWriter returns an enabled audit logger writing to w.
func NewAuditWriter(w io.Writer) *AuditLogger {
	return &AuditLogger{writer: w, sessionID: uuid.NewString(), enabled: true}
}

// SessionID returns the identifier stamped on every event.
func (l *AuditLogger) SessionID() string {
	return l.sessionID
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogRunStart logs the start of a simplification run.
func (l *AuditLogger) LogRunStart(ctx context.Context, mode, input string, params map[string]interface{}) {
	l.Log(&AuditEvent{
		EventType: AuditEventRunStart,
		Success:   true,
		Message:   fmt.Sprintf("Simplification started (%s)", mode),
		Details: map[string]interface{}{
			"mode":   mode,
			"input":  input,
			"params": params,
		},
	})
}

// LogRunEnd logs the end of a simplification run.
func (l *AuditLogger) LogRunEnd(ctx context.Context, rounds, removed int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventRunEnd,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("Simplification finished: %d rounds, %d removed", rounds, removed),
		Details: map[string]interface{}{
			"rounds":  rounds,
			"removed": removed,
		},
	})
}

// LogRunError logs a run aborted by err.
func (l *AuditLogger) LogRunError(ctx context.Context, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventRunError,
		Success:     false,
		Message:     "Simplification aborted",
		ErrorDetail: err.Error(),
	})
}

// LogPassStart logs the start of a pass.
func (l *AuditLogger) LogPassStart(ctx context.Context, round, validNodes int) {
	l.Log(&AuditEvent{
		EventType: AuditEventPassStart,
		Round:     round,
		Success:   true,
		Details: map[string]interface{}{
			"valid_nodes": validNodes,
		},
	})
}

// LogPassEnd logs the result of a pass.
func (l *AuditLogger) LogPassEnd(ctx context.Context, round, roots, candidates, removed int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventPassEnd,
		Round:     round,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("Pass %d removed %d nodes", round, removed),
		Details: map[string]interface{}{
			"roots":      roots,
			"candidates": candidates,
			"removed":    removed,
		},
	})
}

// DecisionRecord is one resolved candidate bubble as written to the trail.
// Removed is 0 when both branches were kept. Coverages are -1 when the
// branch path was not recorded.
type DecisionRecord struct {
	Round        int
	Root         int64
	Prev         int64
	Ext          int64
	Policy       string
	Removed      int64
	RemovedNodes int
	PrevCoverage float64
	ExtCoverage  float64
}

// LogDecision logs the outcome of one candidate bubble.
func (l *AuditLogger) LogDecision(ctx context.Context, rec DecisionRecord) {
	l.Log(&AuditEvent{
		EventType: AuditEventDecision,
		Round:     rec.Round,
		Success:   rec.Removed != 0,
		Details: map[string]interface{}{
			"root":          rec.Root,
			"prev":          rec.Prev,
			"ext":           rec.Ext,
			"policy":        rec.Policy,
			"removed":       rec.Removed,
			"removed_nodes": rec.RemovedNodes,
			"prev_coverage": rec.PrevCoverage,
			"ext_coverage":  rec.ExtCoverage,
		},
	})
}

// LogStorage logs a graph repository operation.
func (l *AuditLogger) LogStorage(ctx context.Context, eventType AuditEventType, graphName string, nodes int, err error) {
	event := &AuditEvent{
		EventType: eventType,
		Success:   err == nil,
		Message:   fmt.Sprintf("%s %s", eventType, graphName),
		Details: map[string]interface{}{
			"graph_name": graphName,
			"nodes":      nodes,
		},
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

var globalAuditLogger *AuditLogger
var auditOnce sync.Once

// InitGlobalAuditLogger initializes the global audit logger.
func InitGlobalAuditLogger(config *AuditConfig) error {
	var err error
	auditOnce.Do(func() {
		globalAuditLogger, err = NewAuditLogger(config)
	})
	return err
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if globalAuditLogger == nil {
		return &AuditLogger{enabled: false}
	}
	return globalAuditLogger
}
