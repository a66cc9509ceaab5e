// internal/models/decode.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clinic-workers/internal/common/errors"
)

// The clinic API is loosely typed: numbers arrive as strings, booleans as 0/1 and
// field names drift between screens. Everything is converted here, once.

var wireDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeMembershipRecord converts one wire membership object into a typed record.
func DecodeMembershipRecord(raw map[string]interface{}) (*MembershipRecord, error) {
	tierStr, ok := wireString(raw, "type", "membership_type", "tier")
	if !ok || tierStr == "" {
		return nil, errors.NewValidationError("type", "membership record has no type")
	}
	tier, err := ParseTier(tierStr)
	if err != nil {
		return nil, err
	}

	rec := &MembershipRecord{Tier: tier}
	rec.ID, _ = wireString(raw, "id", "membership_id")
	rec.CustomerID, _ = wireString(raw, "customer_id", "customerId")
	rec.PaymentMethod, _ = wireString(raw, "payment_method", "paymentMethod")

	if rec.Coverage, err = wireNumber(raw, "coverage", "consumable_amount"); err != nil {
		return nil, err
	}
	if rec.Price, err = wireNumber(raw, "price"); err != nil {
		return nil, err
	}

	registered, err := wireTime(raw, "date_registered", "created_at", "dateRegistered")
	if err != nil {
		return nil, err
	}
	if registered != nil {
		rec.DateRegistered = *registered
	}

	if rec.ExpireDate, err = wireTime(raw, "expire_date", "expireDate", "valid_until"); err != nil {
		return nil, err
	}
	if rec.NoExpiration, err = wireBool(raw, "no_expiration", "noExpiration"); err != nil {
		return nil, err
	}

	return rec, nil
}

// DecodeActivityLogEntry converts one wire log row into a typed entry.
func DecodeActivityLogEntry(raw map[string]interface{}) (*ActivityLogEntry, error) {
	entry := &ActivityLogEntry{}
	entry.ID, _ = wireString(raw, "id", "log_id")
	entry.CustomerID, _ = wireString(raw, "customer_id", "customerId")
	entry.MembershipID, _ = wireString(raw, "membership_id", "membershipId")
	entry.PaymentMethod, _ = wireString(raw, "payment_method", "paymentMethod")

	action, _ := wireString(raw, "action")
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionNewMember, "new":
		entry.Action = ActionNewMember
	case ActionRenewed, WireActionRenew:
		entry.Action = ActionRenewed
	default:
		return nil, errors.NewValidationError("action", fmt.Sprintf("unknown log action %q", action))
	}

	if tierStr, ok := wireString(raw, "type", "membership_type", "tier"); ok && tierStr != "" {
		tier, err := ParseTier(tierStr)
		if err != nil {
			return nil, err
		}
		entry.Tier = tier
	}

	var err error
	if entry.Amount, err = wireNumber(raw, "amount"); err != nil {
		return nil, err
	}
	ts, err := wireTime(raw, "timestamp", "created_at", "date")
	if err != nil {
		return nil, err
	}
	if ts != nil {
		entry.Timestamp = *ts
	}
	return entry, nil
}

// DecodeCustomer converts a wire customer object.
func DecodeCustomer(raw map[string]interface{}) (*Customer, error) {
	c := &Customer{}
	c.ID, _ = wireString(raw, "id", "customer_id")
	if c.ID == "" {
		return nil, errors.NewValidationError("customer_id", "customer record has no id")
	}
	c.FirstName, _ = wireString(raw, "first_name", "firstname", "firstName")
	c.LastName, _ = wireString(raw, "last_name", "lastname", "lastName")
	c.Email, _ = wireString(raw, "email")
	c.Phone, _ = wireString(raw, "phone", "contact_number", "contact")

	archived, err := wireBool(raw, "archived", "is_archived")
	if err != nil {
		return nil, err
	}
	c.Archived = archived
	return c, nil
}

// DecodeMembershipList accepts either a bare array or an envelope {data: [...]}.
func DecodeMembershipList(body []byte) ([]MembershipRecord, error) {
	items, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	out := make([]MembershipRecord, 0, len(items))
	for _, item := range items {
		rec, err := DecodeMembershipRecord(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// DecodeObject unwraps a single object, tolerating a {data: {...}} envelope.
func DecodeObject(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	if inner, ok := raw["data"].(map[string]interface{}); ok {
		return inner, nil
	}
	return raw, nil
}

func decodeList(body []byte) ([]map[string]interface{}, error) {
	var generic interface{}
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	var arr []interface{}
	switch v := generic.(type) {
	case []interface{}:
		arr = v
	case map[string]interface{}:
		if data, ok := v["data"].([]interface{}); ok {
			arr = data
		} else if v["data"] == nil {
			return nil, nil
		} else {
			return nil, errors.NewValidationError("data", "expected an array of records")
		}
	case nil:
		return nil, nil
	default:
		return nil, errors.NewValidationError("data", "expected an array of records")
	}

	out := make([]map[string]interface{}, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("data[%d]", i), "expected an object")
		}
		out = append(out, obj)
	}
	return out, nil
}

// ==========================
// Field coercion
// ==========================

// lookup returns the first key holding a non-blank value. Null and whitespace-only
// strings fall through to the next key.
func lookup(raw map[string]interface{}, keys ...string) (string, interface{}, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || isBlank(v) {
			continue
		}
		return k, v, true
	}
	return "", nil, false
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func wireString(raw map[string]interface{}, keys ...string) (string, bool) {
	_, v, ok := lookup(raw, keys...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

func wireNumber(raw map[string]interface{}, keys ...string) (float64, error) {
	key, v, ok := lookup(raw, keys...)
	if !ok {
		return 0, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, errors.NewValidationError(key, fmt.Sprintf("not a number: %q", t.String()))
		}
		return f, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.NewValidationError(key, fmt.Sprintf("not a number: %q", t))
		}
		return f, nil
	default:
		return 0, errors.NewValidationError(key, fmt.Sprintf("not a number: %v", t))
	}
}

func wireBool(raw map[string]interface{}, keys ...string) (bool, error) {
	key, v, ok := lookup(raw, keys...)
	if !ok {
		return false, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no", "":
			return false, nil
		}
	}
	return false, errors.NewValidationError(key, fmt.Sprintf("not a boolean: %v", v))
}

// wireTime also falls through keys holding a zero date.
func wireTime(raw map[string]interface{}, keys ...string) (*time.Time, error) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || isBlank(v) {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return nil, errors.NewValidationError(key, fmt.Sprintf("not a date: %v", v))
		}
		t, err := ParseWireDate(s)
		if err != nil {
			return nil, errors.NewValidationError(key, err.Error())
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

// ParseWireDate parses the date shapes the clinic API emits. Empty strings and
// the MySQL zero date mean "no date".
func ParseWireDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || strings.HasPrefix(s, "0000-00-00") {
		return nil, nil
	}
	for _, layout := range wireDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

// FormatWireDate renders a date the way POST /members expects it.
func FormatWireDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
