// Package errors provides the standardized error taxonomy shared by the membership
// workers, the HTTP API and the BPMN integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Membership lifecycle errors.
const (
	ErrCodeValidationFailed    ErrorCode = "MEMBERSHIP_VALIDATION_FAILED"
	ErrCodeInvalidTier         ErrorCode = "INVALID_TIER"
	ErrCodeNotFound            ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeRemoteStore         ErrorCode = "REMOTE_STORE_ERROR"
	ErrCodeNetwork             ErrorCode = "NETWORK_ERROR"
	ErrCodeDuplicateActiveTier ErrorCode = "DUPLICATE_ACTIVE_TIER"
	ErrCodeMembershipExpired   ErrorCode = "MEMBERSHIP_EXPIRED"
)

// Infrastructure errors.
const (
	ErrCodeInputParsingFailed       ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout            ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound            ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the transport or driver error that caused this one, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Field returns the offending input field of a validation error.
func (e *StandardError) Field() string {
	if e.Metadata == nil {
		return ""
	}
	f, _ := e.Metadata["field"].(string)
	return f
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports bad input; field names the first violated constraint.
func NewValidationError(field, details string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Membership input validation failed", details, false)
	e.Metadata = map[string]interface{}{"field": field}
	return e
}

// NewInvalidTierError reports a tier name outside basic/pro/promo.
func NewInvalidTierError(tier string) *StandardError {
	e := newError(ErrCodeInvalidTier, "Invalid membership tier", fmt.Sprintf("tier: %q", tier), false)
	e.Metadata = map[string]interface{}{"field": "type"}
	return e
}

// NewNotFoundError reports an unknown customer, membership or catalog row.
func NewNotFoundError(resource, id string) *StandardError {
	e := newError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), fmt.Sprintf("id: %s", id), false)
	e.Metadata = map[string]interface{}{"resource": resource, "id": id}
	return e
}

// NewRemoteError reports a non-success answer from the membership or log store.
func NewRemoteError(endpoint string, status int, details string) *StandardError {
	e := newError(ErrCodeRemoteStore, fmt.Sprintf("Remote store rejected %s", endpoint), details, false)
	e.Metadata = map[string]interface{}{"endpoint": endpoint, "status": status}
	return e
}

// NewNetworkError reports a transport-level failure talking to the remote store.
func NewNetworkError(endpoint string, err error) *StandardError {
	e := newError(ErrCodeNetwork, fmt.Sprintf("Network failure calling %s", endpoint), err.Error(), false)
	e.Metadata = map[string]interface{}{"endpoint": endpoint}
	e.cause = err
	return e
}

// NewDuplicateActiveTierError reports a second active Basic/Pro catalog definition.
func NewDuplicateActiveTierError(tier, existingID string) *StandardError {
	e := newError(ErrCodeDuplicateActiveTier, "An active membership of this tier already exists",
		fmt.Sprintf("tier: %s, existingId: %s", tier, existingID), false)
	e.Metadata = map[string]interface{}{"tier": tier, "existingId": existingID}
	return e
}

// NewMembershipExpiredError reports that the customer's current membership lapsed.
func NewMembershipExpiredError(customerID string, expiredAt time.Time) *StandardError {
	return newError(ErrCodeMembershipExpired, "Membership has expired",
		fmt.Sprintf("customerId: %s, expiredAt: %s", customerID, expiredAt.Format("2006-01-02")), false)
}

// NewInputParsingError reports job variables that could not be decoded.
func NewInputParsingError(err error) *StandardError {
	e := newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
	e.cause = err
	return e
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
	e.cause = err
	return e
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	e := newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
	e.cause = err
	return e
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	e := newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
	e.cause = err
	return e
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true)
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("index: %s", index), false)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
	e.cause = err
	return e
}

// ==========================
// 4. Inspection helpers
// ==========================

// AsStandard extracts a *StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// FieldOf returns the field named by a validation error, or "".
func FieldOf(err error) string {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Field()
	}
	return ""
}

func IsValidation(err error) bool  { return CodeOf(err) == ErrCodeValidationFailed }
func IsInvalidTier(err error) bool { return CodeOf(err) == ErrCodeInvalidTier }
func IsNotFound(err error) bool    { return CodeOf(err) == ErrCodeNotFound }
func IsRemote(err error) bool      { return CodeOf(err) == ErrCodeRemoteStore }
func IsNetwork(err error) bool     { return CodeOf(err) == ErrCodeNetwork }

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	e := newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
	e.cause = err
	return e
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the job retry budget for an error code. Membership errors are
// surfaced to the caller and never retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeSearchTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if field := stdErr.Field(); field != "" {
		vars["errorField"] = field
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "REMOTE") || strings.Contains(codeStr, "NETWORK"):
		return "REMOTE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "MEMBERSHIP") || strings.Contains(codeStr, "TIER"):
		return "BUSINESS_RULE"
	default:
		return "UNKNOWN"
	}
}
