package audit

import (
	"time"

	"github.com/rs/zerolog"
)

// Logger emits audit events as structured log lines. All payload fields
// pass through Redact before reaching the sink.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// MedicalEvent records a clinical operation (validation run, prescription
// issued). Fields carrying medication or allergy text are redacted; callers
// should pass counts and identifiers only.
func (l *Logger) MedicalEvent(event string, fields map[string]interface{}) {
	l.emit(l.log.Info(), "medical_audit", event, fields)
}

// SecurityEvent records an authentication, signing, or verification
// operation.
func (l *Logger) SecurityEvent(event string, fields map[string]interface{}) {
	l.emit(l.log.Info(), "security_audit", event, fields)
}

// Error records an audited failure with the same redaction guarantees.
func (l *Logger) Error(event string, err error, fields map[string]interface{}) {
	l.emit(l.log.Error().Err(err), "audit", event, fields)
}

// Audit records a generic audited operation.
func (l *Logger) Audit(event string, fields map[string]interface{}) {
	l.emit(l.log.Info(), "audit", event, fields)
}

func (l *Logger) emit(evt *zerolog.Event, kind, event string, fields map[string]interface{}) {
	redacted, _ := Redact(fields).(map[string]interface{})
	evt.
		Str("type", kind).
		Str("event", event).
		Time("recorded_at", time.Now().UTC()).
		Fields(redacted).
		Msg(event)
}
