package recordfeedback

import "health-assistant/internal/common/validation"

// Submission is a feedback body after migration to the current schema.
type Submission struct {
	Rate          int
	Feedback      *string
	SchemaVersion int
}

func rateSchema(maxLength int) validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"rate":     {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(5)},
			"feedback": {Type: "string", MaxLength: validation.Int(maxLength), Nullable: true},
		},
		Required: []string{"rate"},
	}
}

func likeSchema(maxLength int) validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"like":     {Type: "boolean"},
			"feedback": {Type: "string", MaxLength: validation.Int(maxLength), Nullable: true},
		},
		Required: []string{"like"},
	}
}
