package upsertmembershipcatalog

import "clinic-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"tier", "name", "price", "coverage"},
		Properties: map[string]validation.Property{
			"id": {
				Type:        "string",
				Description: "Existing definition to update",
				Pattern:     validation.String(`^[0-9a-fA-F-]{36}$`),
			},
			"tier": {
				Type: "string",
				Enum: []string{"basic", "pro", "promo", "Basic", "Pro", "Promo"},
			},
			"name": {
				Type:      "string",
				MinLength: validation.Int(1),
				MaxLength: validation.Int(120),
			},
			"description": {
				Type:      "string",
				MaxLength: validation.Int(2000),
			},
			"price": {
				Type:             "number",
				ExclusiveMinimum: validation.Float(0),
			},
			"coverage": {
				Type:             "number",
				ExclusiveMinimum: validation.Float(0),
			},
			"noExpiration": {Type: "boolean"},
			"validUntil": {
				Type:    "string",
				Pattern: validation.String(`^\d{4}-\d{2}-\d{2}$`),
			},
			"active": {Type: "boolean"},
		},
		AdditionalProperties: true,
	}
}
