// internal/models/payment.go
package models

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

// ParsePaymentStatus maps free text to a known status; unknown values are pending.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(normalizeEnum(s)) {
	case PaymentCompleted:
		return PaymentCompleted
	case PaymentFailed:
		return PaymentFailed
	default:
		return PaymentPending
	}
}

type PaymentRecord struct {
	ID     string        `json:"id,omitempty"`
	Amount float64       `json:"amount"`
	Status PaymentStatus `json:"status"`
	Date   time.Time     `json:"date"`
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
