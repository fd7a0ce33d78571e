// Package audit provides structured audit logging for SIEM consumption.
// Review decisions move answers toward farmers, so every decision and
// every failed authentication is recorded in a parseable form.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType categorizes auditable events for filtering and alerting.
type EventType string

const (
	// EventAuthFailure is logged when a request fails authentication or
	// lacks the required role.
	EventAuthFailure EventType = "auth_failure"
	// EventReviewDecision is logged for every accepted review transition.
	EventReviewDecision EventType = "review_decision"
	// EventRerouteEscalation is logged when a moderator escalates an
	// answer to another reviewer pool.
	EventRerouteEscalation EventType = "reroute_escalation"
)

// Event is one auditable occurrence with the context a SIEM needs.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  EventType `json:"event_type"`
	QuestionID uuid.UUID `json:"question_id,omitempty"`
	ReviewerID uuid.UUID `json:"reviewer_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Details    any       `json:"details,omitempty"`
	Severity   string    `json:"severity"`
}

// Auditor writes audit events through a dedicated logger namespace so
// they can be routed separately from application logs.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor creates an auditor logging under the "audit" namespace.
func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger.Named("audit")}
}

// LogAuthFailure records a rejected request. reason is the short cause,
// such as "missing authorization" or "insufficient role".
func (a *Auditor) LogAuthFailure(path, reason, clientIP string) {
	a.emit("authentication failure", Event{
		Timestamp: time.Now().UTC(),
		EventType: EventAuthFailure,
		ClientIP:  clientIP,
		Details:   map[string]string{"path": path, "reason": reason},
		Severity:  "warning",
	})
}

// LogReviewDecision records a completed review transition. action is the
// decision taken: accepted, rejected, modified, or an initial submit.
func (a *Auditor) LogReviewDecision(questionID, reviewerID uuid.UUID, action string) {
	a.emit("review decision", Event{
		Timestamp:  time.Now().UTC(),
		EventType:  EventReviewDecision,
		QuestionID: questionID,
		ReviewerID: reviewerID,
		Details:    map[string]string{"action": action},
		Severity:   "info",
	})
}

// LogRerouteEscalation records an escalation to another reviewer pool.
func (a *Auditor) LogRerouteEscalation(questionID, moderatorID, reroutedTo uuid.UUID) {
	a.emit("reroute escalation", Event{
		Timestamp:  time.Now().UTC(),
		EventType:  EventRerouteEscalation,
		QuestionID: questionID,
		ReviewerID: moderatorID,
		Details:    map[string]string{"rerouted_to": reroutedTo.String()},
		Severity:   "info",
	})
}

func (a *Auditor) emit(message string, event Event) {
	// Marshaling known types does not fail; the raw JSON field lets a
	// SIEM ingest the whole event without reassembling zap fields.
	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("severity", event.Severity),
	}
	if event.QuestionID != uuid.Nil {
		fields = append(fields, zap.String("question_id", event.QuestionID.String()))
	}
	if event.ReviewerID != uuid.Nil {
		fields = append(fields, zap.String("reviewer_id", event.ReviewerID.String()))
	}

	if event.Severity == "warning" {
		a.logger.Warn(message, fields...)
	} else {
		a.logger.Info(message, fields...)
	}
}
