package searchmembershiplogs

import "clinic-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"customerId": {Type: "string"},
			"action": {
				Type: "string",
				Enum: []string{"new member", "renewed"},
			},
			"tier": {Type: "string"},
			"from": {Type: "string"},
			"to":   {Type: "string"},
			"pagination": {
				Type: "object",
				Properties: map[string]validation.Property{
					"from": {Type: "integer", Minimum: validation.Float(0)},
					"size": {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(100)},
				},
			},
		},
		AdditionalProperties: true,
	}
}
