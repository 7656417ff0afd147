// internal/workers/credit/notify-loan-decision/models.go
package notifyloandecision

type Input struct {
	ApplicationID string `json:"applicationId"`
	FarmerID      string `json:"farmerId"`
	Status        string `json:"status"` // application status the farmer is told about
	Notes         string `json:"notes,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
