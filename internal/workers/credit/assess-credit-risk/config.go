// internal/workers/credit/assess-credit-risk/config.go
package assesscreditrisk

import (
	"time"

	"agri-credit-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// FetchTimeout bounds the concurrent repository fetches.
	FetchTimeout    time.Duration
	IndexingEnabled bool
	AssessmentIndex string
}

func LoadConfig(wc config.WorkerConfig, sc config.ScoringConfig) *Config {
	cfg := &Config{
		Timeout:         30 * time.Second,
		FetchTimeout:    5 * time.Second,
		IndexingEnabled: sc.IndexingEnabled,
		AssessmentIndex: sc.AssessmentIndex,
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	if sc.FetchTimeout > 0 {
		cfg.FetchTimeout = config.GetDuration(sc.FetchTimeout)
	}
	return cfg
}
