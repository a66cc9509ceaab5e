package validatemembership

import "clinic-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"customerId"},
		Properties: map[string]validation.Property{
			"customerId": {
				Type:        "string",
				Description: "Clinic customer identifier",
				MinLength:   validation.Int(1),
				MaxLength:   validation.Int(64),
			},
		},
		AdditionalProperties: true,
	}
}
