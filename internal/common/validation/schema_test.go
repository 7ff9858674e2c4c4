package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func fieldsWithErrors(result *ValidationResult) []string {
	fields := make([]string, 0, len(result.Errors))
	for _, err := range result.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

func TestValidateInput(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"rate":     {Type: "integer", Minimum: Float(1), Maximum: Float(5)},
			"feedback": {Type: "string", MaxLength: Int(10), Nullable: true},
			"like":     {Type: "boolean"},
		},
		Required: []string{"rate"},
	}

	tests := []struct {
		name      string
		body      string
		valid     bool
		errFields []string
	}{
		{name: "valid", body: `{"rate": 4, "feedback": "bom"}`, valid: true},
		{name: "null optional", body: `{"rate": 4, "feedback": null}`, valid: true},
		{name: "missing required", body: `{"feedback": "x"}`, errFields: []string{"rate"}},
		{name: "null required", body: `{"rate": null}`, errFields: []string{"rate"}},
		{name: "fractional integer", body: `{"rate": 4.5}`, errFields: []string{"rate"}},
		{name: "below minimum", body: `{"rate": 0}`, errFields: []string{"rate"}},
		{name: "above maximum", body: `{"rate": 6}`, errFields: []string{"rate"}},
		{name: "string rate", body: `{"rate": "5"}`, errFields: []string{"rate"}},
		{name: "max length counts runes", body: `{"rate": 1, "feedback": "ótimoótimo"}`, valid: true},
		{name: "too long", body: `{"rate": 1, "feedback": "ótimo ótimo"}`, errFields: []string{"feedback"}},
		{name: "boolean", body: `{"rate": 1, "like": false}`, valid: true},
		{name: "non boolean", body: `{"rate": 1, "like": "yes"}`, errFields: []string{"like"}},
		{name: "null non-nullable", body: `{"rate": 1, "like": null}`, errFields: []string{"like"}},
		{name: "extra field", body: `{"rate": 1, "user": "x"}`, errFields: []string{"user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(decode(t, tt.body), schema)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			assert.ElementsMatch(t, tt.errFields, fieldsWithErrors(result), result.GetErrorMessages())
		})
	}
}

func TestValidateInput_AdditionalProperties(t *testing.T) {
	schema := JSONSchema{
		Type:                 "object",
		Properties:           map[string]Property{"rate": {Type: "integer"}},
		AdditionalProperties: true,
	}

	assert.True(t, ValidateInput(decode(t, `{"rate": 3, "source": "web"}`), schema).Valid)
}

func TestGetErrorMessages(t *testing.T) {
	result := ValidateInput(map[string]interface{}{}, JSONSchema{Required: []string{"rate"}})

	assert.Equal(t, []string{"rate: required field missing"}, result.GetErrorMessages())
}
