package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: agri_credit
    user: credit
  redis:
    address: localhost:6379
kafka:
  brokers: ["localhost:9092"]
workers:
  assess-credit-risk:
    enabled: true
  notify-loan-decision:
    enabled: false
    timeout: 15000
notifications:
  templates:
    approved:
      subject: "Loan {{applicationId}} approved"
      body: "Dear {{farmerName}}, your loan was approved."
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "loan.decision.recorded", cfg.Kafka.DecisionTopic)
	assert.Equal(t, 300000.0, cfg.Scoring.PlatformCeiling)
	assert.Equal(t, "credit-assessments", cfg.Scoring.AssessmentIndex)
	assert.Equal(t, 300, cfg.Scoring.ContactCacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)

	assess := GetWorkerConfig(cfg, "assess-credit-risk")
	assert.True(t, assess.Enabled)
	assert.Equal(t, 5, assess.MaxJobsActive)
	assert.Equal(t, 30000, assess.Timeout)

	assert.False(t, IsWorkerEnabled(cfg, "notify-loan-decision"))
	assert.Equal(t, 15000, GetWorkerConfig(cfg, "notify-loan-decision").Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "check-eligibility"))

	require.Contains(t, cfg.Notifications.Templates, "approved")
	assert.Equal(t, "Loan {{applicationId}} approved", cfg.Notifications.Templates["approved"].Subject)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	content := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: agri_credit
    user: credit
    password: ${TEST_PG_PASSWORD}
  redis:
    address: localhost:6379
kafka:
  brokers: ["localhost:9092"]
`
	cfg, err := LoadFromFile(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing broker",
			content: "database:\n  postgres:\n    host: h\n",
			errMsg:  "camunda.broker_address",
		},
		{
			name: "missing kafka brokers",
			content: `
camunda:
  broker_address: localhost:26500
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: r}
`,
			errMsg: "kafka.brokers",
		},
		{
			name: "ceiling above platform maximum",
			content: `
camunda:
  broker_address: localhost:26500
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: r}
kafka:
  brokers: [k]
scoring:
  platform_ceiling: 500000
`,
			errMsg: "platform_ceiling",
		},
		{
			name: "email without sender",
			content: `
camunda:
  broker_address: localhost:26500
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: r}
kafka:
  brokers: [k]
notifications:
  email:
    enabled: true
`,
			errMsg: "from_email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
