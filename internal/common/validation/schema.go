package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// JSONSchema defines the structure for input/output schemas
type JSONSchema struct {
	Type                 string
	Properties           map[string]Property
	Required             []string
	AdditionalProperties bool
}

type Property struct {
	Type             string
	Nullable         bool
	Description      string
	Minimum          *float64
	ExclusiveMinimum *float64
	Maximum          *float64
	Enum             []string
	Pattern          *string
	Format           string
	MinLength        *int
	MaxLength        *int
	Items            *Property           // For array validation
	Properties       map[string]Property // For nested objects
	Required         []string            // For nested objects
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Float and Int build the pointer constraints used in schema literals.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func String(v string) *string  { return &v }

// ToMap renders the schema as a draft-07 document.
func (s JSONSchema) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"$schema":              draft07,
		"type":                 s.Type,
		"additionalProperties": s.AdditionalProperties,
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.toMap()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func (p Property) toMap() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Type != "" {
		if p.Nullable {
			out["type"] = []string{p.Type, "null"}
		} else {
			out["type"] = p.Type
		}
	}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if p.Minimum != nil {
		out["minimum"] = *p.Minimum
	}
	if p.ExclusiveMinimum != nil {
		out["exclusiveMinimum"] = *p.ExclusiveMinimum
	}
	if p.Maximum != nil {
		out["maximum"] = *p.Maximum
	}
	if len(p.Enum) > 0 {
		enum := make([]interface{}, 0, len(p.Enum)+1)
		for _, v := range p.Enum {
			enum = append(enum, v)
		}
		if p.Nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	if p.Pattern != nil {
		out["pattern"] = *p.Pattern
	}
	if p.Format != "" {
		out["format"] = p.Format
	}
	if p.MinLength != nil {
		out["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		out["maxLength"] = *p.MaxLength
	}
	if p.Items != nil {
		out["items"] = p.Items.toMap()
	}
	if len(p.Properties) > 0 {
		props := make(map[string]interface{}, len(p.Properties))
		for name, nested := range p.Properties {
			props[name] = nested.toMap()
		}
		out["properties"] = props
	}
	if len(p.Required) > 0 {
		out["required"] = p.Required
	}
	return out
}

// ValidateInput validates a decoded JSON document against schema. Errors are sorted
// by field so the first one is deterministic.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.ToMap()),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(schema)",
				Message: err.Error(),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(errors, func(i, j int) bool { return errors[i].Field < errors[j].Field })

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// fieldOf names the offending property; gojsonschema reports missing required
// properties against their parent.
func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" || desc.Type() == "additional_property_not_allowed" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "(root)" || field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}

var taskTypePattern = regexp.MustCompile(`^[a-z]+(\.[a-z]+)+$`)

// ValidateTaskType checks that a job type follows the domain.action naming convention
// (e.g. membership.evaluate, membership.catalog.upsert).
func ValidateTaskType(taskType string) error {
	if !taskTypePattern.MatchString(taskType) {
		return fmt.Errorf("task type %q must follow format: domain.action (e.g. membership.evaluate)", taskType)
	}
	return nil
}

// First returns the first error, if any.
func (vr *ValidationResult) First() (ValidationError, bool) {
	if len(vr.Errors) == 0 {
		return ValidationError{}, false
	}
	return vr.Errors[0], true
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
