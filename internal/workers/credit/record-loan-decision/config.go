// internal/workers/credit/record-loan-decision/config.go
package recordloandecision

import (
	"time"

	"agri-credit-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// PublishTimeout bounds the Kafka write after the decision is committed.
	PublishTimeout time.Duration
	Topic          string
}

func LoadConfig(wc config.WorkerConfig, kc config.KafkaConfig) *Config {
	cfg := &Config{
		Timeout:        30 * time.Second,
		PublishTimeout: 5 * time.Second,
		Topic:          kc.DecisionTopic,
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	if kc.WriteTimeout > 0 {
		cfg.PublishTimeout = config.GetDuration(kc.WriteTimeout)
	}
	return cfg
}
