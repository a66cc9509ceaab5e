package notifymembership

import "clinic-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"customerId", "action", "tier"},
		Properties: map[string]validation.Property{
			"customerId":   {Type: "string", MinLength: validation.Int(1)},
			"customerName": {Type: "string", MaxLength: validation.Int(200)},
			"email":        {Type: "string", MaxLength: validation.Int(255)},
			"phone":        {Type: "string", MaxLength: validation.Int(32)},
			"membershipId": {Type: "string"},
			"action": {
				Type: "string",
				Enum: []string{"new member", "renewed"},
			},
			"tier":       {Type: "string", MinLength: validation.Int(1)},
			"coverage":   {Type: "number", Minimum: validation.Float(0)},
			"expireDate": {Type: "string", Nullable: true},
		},
		AdditionalProperties: true,
	}
}
