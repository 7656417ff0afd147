// internal/workers/credit/notify-loan-decision/config.go
package notifyloandecision

import (
	"time"

	"agri-credit-workers/internal/common/config"
	"agri-credit-workers/internal/models"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	SMSRate      float64 // messages per second
	SMSBurst     int
	Templates    map[string]models.NotificationTemplate
	Timeout      time.Duration
}

func LoadConfig(wc config.WorkerConfig, nc config.NotificationConfig) *Config {
	cfg := &Config{
		EmailEnabled: nc.Email.Enabled,
		SMSEnabled:   nc.SMS.Enabled,
		SMSRate:      nc.SMS.RatePerSecond,
		SMSBurst:     nc.SMS.Burst,
		Templates:    nc.Templates,
		Timeout:      30 * time.Second,
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.SMSRate <= 0 {
		cfg.SMSRate = 10
	}
	if cfg.SMSBurst <= 0 {
		cfg.SMSBurst = 1
	}
	if len(cfg.Templates) == 0 {
		cfg.Templates = DefaultTemplates()
	}
	return cfg
}

// DefaultTemplates are used when the configuration defines none.
func DefaultTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		string(models.StatusApproved): {
			Subject: "Your loan application has been approved",
			Body:    "Dear {{farmerName}}, your loan application {{applicationId}} has been approved. {{notes}}",
		},
		string(models.StatusRejected): {
			Subject: "Update on your loan application",
			Body:    "Dear {{farmerName}}, your loan application {{applicationId}} was not approved. {{notes}}",
		},
	}
}
