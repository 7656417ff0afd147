// internal/models/notification.go
package models

// NotificationTemplate is a subject/body pair rendered with {{placeholder}} values.
type NotificationTemplate struct {
	Subject string `json:"subject" mapstructure:"subject"`
	Body    string `json:"body" mapstructure:"body"`
}

// DecisionEvent is published after an officer decision has been committed.
type DecisionEvent struct {
	EventID       string            `json:"eventId"`
	EventType     string            `json:"eventType"`
	ApplicationID string            `json:"applicationId"`
	FarmerID      string            `json:"farmerId"`
	Status        ApplicationStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
	DecidedBy     string            `json:"decidedBy"`
	OccurredAt    string            `json:"occurredAt"`
}
