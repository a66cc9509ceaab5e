package evaluatemembership

import "clinic-workers/internal/common/validation"

// GetInputSchema checks variable types only. Required fields and tier names are
// enforced by the lifecycle so jobs and API calls report the same errors.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"customerId": {
				Type:        "string",
				Description: "Clinic customer identifier",
				MaxLength:   validation.Int(64),
			},
			"tier": {
				Type:        "string",
				Description: "basic, pro or promo",
				MaxLength:   validation.Int(16),
			},
			"paymentMethod": {
				Type:        "string",
				Description: "Free-form payment method recorded with the membership",
				MaxLength:   validation.Int(64),
			},
			"promo": {
				Type:        "object",
				Nullable:    true,
				Description: "Promo terms, required for the promo tier",
				Properties: map[string]validation.Property{
					"price":            {Type: "number"},
					"coverageAmount":   {Type: "number"},
					"consumableAmount": {Type: "number"},
					"noExpiration":     {Type: "boolean"},
					"validUntil":       {Type: "string"},
				},
			},
		},
		// process instances carry unrelated variables
		AdditionalProperties: true,
	}
}
