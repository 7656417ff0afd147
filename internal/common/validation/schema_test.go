package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const decisionSchema = `{
  "type": "object",
  "required": ["applicationId", "action"],
  "properties": {
    "applicationId": {"type": "string", "minLength": 1},
    "action": {"type": "string", "enum": ["approve", "reject"]},
    "notes": {"type": "string"}
  }
}`

func TestSchema_Validate(t *testing.T) {
	schema, err := CompileJSON(decisionSchema)
	require.NoError(t, err)

	t.Run("valid document", func(t *testing.T) {
		result, err := schema.Validate(map[string]interface{}{
			"applicationId": "app-1",
			"action":        "approve",
		})
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.NoError(t, result.Error())
	})

	t.Run("missing required field", func(t *testing.T) {
		result, err := schema.Validate(map[string]interface{}{"action": "approve"})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.True(t, result.HasErrors("applicationId"))
		assert.Equal(t, "REQUIRED", result.Errors[0].Code)
		assert.Error(t, result.Error())
	})

	t.Run("enum violation", func(t *testing.T) {
		result, err := schema.Validate(map[string]interface{}{
			"applicationId": "app-1",
			"action":        "defer",
		})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Len(t, result.GetErrorsForField("action"), 1)
		assert.Len(t, result.GetErrorMessages(), 1)
	})
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := CompileJSON(`{"type": 12}`)
	assert.Error(t, err)

	_, err = Compile(map[string]interface{}{"type": "object"})
	assert.NoError(t, err)
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("assess-credit-risk"))
	assert.Error(t, ValidateActivityNaming("credit.risk.assess"))
	assert.Error(t, ValidateActivityNaming("Assess-Credit"))
	assert.Error(t, ValidateActivityNaming("score"))
}

func TestValidateContactFormats(t *testing.T) {
	assert.True(t, ValidateEmail("abebe@example.et"))
	assert.False(t, ValidateEmail("abebe"))
	assert.True(t, ValidatePhone("+251 911 234 567"))
	assert.False(t, ValidatePhone("12345"))
}
