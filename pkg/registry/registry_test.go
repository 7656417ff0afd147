package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistry = `{
  "version": "1.0.0",
  "activities": [
    {
      "id": "record-loan-decision",
      "taskType": "record-loan-decision",
      "inputSchema": {
        "type": "object",
        "required": ["applicationId", "action"],
        "properties": {
          "applicationId": {"type": "string", "minLength": 1},
          "action": {"type": "string", "enum": ["approve", "reject"]}
        }
      }
    },
    {"id": "check-eligibility", "taskType": "check-eligibility"}
  ]
}`

func writeRegistry(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(testRegistry), 0o644))
	return path
}

func TestInputSchema(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t))
	require.NoError(t, err)

	schema, err := reg.InputSchema("record-loan-decision")
	require.NoError(t, err)
	require.NotNil(t, schema)

	result, err := schema.Validate(map[string]interface{}{"applicationId": "app-1", "action": "defer"})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.GetErrorsForField("action"))

	result, err = schema.Validate(map[string]interface{}{"applicationId": "app-1", "action": "approve"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestInputSchema_MissingAndEmpty(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t))
	require.NoError(t, err)

	schema, err := reg.InputSchema("check-eligibility")
	assert.NoError(t, err)
	assert.Nil(t, schema)

	_, err = reg.InputSchema("unknown-task")
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t))
	require.NoError(t, err)

	activity, ok := reg.Find("record-loan-decision")
	require.True(t, ok)
	assert.Equal(t, "record-loan-decision", activity.ID)

	_, ok = reg.Find("send-notification")
	assert.False(t, ok)
}
