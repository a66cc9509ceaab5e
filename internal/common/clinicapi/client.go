// Package clinicapi talks to the clinic back office that owns customers,
// memberships and the membership activity log.
package clinicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinic-workers/internal/common/config"
	"clinic-workers/internal/common/errors"
	commonhttp "clinic-workers/internal/common/http"
	"clinic-workers/internal/models"
)

const (
	endpointCustomers = "/customers"
	endpointMembers   = "/members"
	endpointLogs      = "/membership_logs"
)

type Client struct {
	baseURL string
	http    *commonhttp.Client
}

// NewClient builds a client for cfg. An API key, when set, is sent as a bearer token.
func NewClient(cfg config.ClinicAPIConfig) *Client {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := commonhttp.NewClient(timeout)
	if cfg.APIKey != "" {
		httpClient = httpClient.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// CreateMemberRequest is the body of POST /members.
type CreateMemberRequest struct {
	CustomerID    string      `json:"customer_id"`
	Action        string      `json:"action"`
	Type          string      `json:"type"`
	Coverage      float64     `json:"coverage"`
	Price         float64     `json:"price"`
	ExpireDate    interface{} `json:"expire_date"`
	NoExpiration  bool        `json:"no_expiration"`
	PaymentMethod string      `json:"payment_method"`
	MembershipID  string      `json:"membership_id,omitempty"`
}

// CreateLogRequest is the body of POST /membership_logs.
type CreateLogRequest struct {
	CustomerID    string  `json:"customer_id"`
	MembershipID  string  `json:"membership_id"`
	Action        string  `json:"action"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// GetCustomer fetches one customer. An unknown id is a NotFoundError.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	endpoint := endpointCustomers + "/" + url.PathEscape(customerID)
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("customer", customerID)
	}
	if err := checkResponse(endpoint, resp); err != nil {
		return nil, err
	}

	raw, err := models.DecodeObject(resp.Body)
	if err != nil {
		return nil, errors.NewRemoteError(endpoint, resp.StatusCode, "unreadable customer payload")
	}
	// Some screens answer 200 with an empty object for missing customers.
	if len(raw) == 0 {
		return nil, errors.NewNotFoundError("customer", customerID)
	}
	return models.DecodeCustomer(raw)
}

// ListMemberships returns every membership record of the customer, in store order.
func (c *Client) ListMemberships(ctx context.Context, customerID string) ([]models.MembershipRecord, error) {
	endpoint := endpointMembers + "?customer_id=" + url.QueryEscape(customerID)
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkResponse(endpointMembers, resp); err != nil {
		return nil, err
	}
	return models.DecodeMembershipList(resp.Body)
}

// CreateMembership posts rec to /members and returns the id the store assigned,
// or "" when the response carries none.
func (c *Client) CreateMembership(ctx context.Context, rec models.MembershipRecord, wireAction, priorID string) (string, error) {
	body := CreateMemberRequest{
		CustomerID:    rec.CustomerID,
		Action:        wireAction,
		Type:          string(rec.Tier),
		Coverage:      rec.Coverage,
		Price:         rec.Price,
		ExpireDate:    models.FormatWireDate(rec.ExpireDate),
		NoExpiration:  rec.NoExpiration,
		PaymentMethod: rec.PaymentMethod,
		MembershipID:  priorID,
	}

	resp, err := c.do(ctx, http.MethodPost, endpointMembers, body)
	if err != nil {
		return "", err
	}
	if err := checkResponse(endpointMembers, resp); err != nil {
		return "", err
	}
	return createdID(resp.Body), nil
}

// AppendMembershipLog posts entry to /membership_logs.
func (c *Client) AppendMembershipLog(ctx context.Context, entry models.ActivityLogEntry) error {
	body := CreateLogRequest{
		CustomerID:    entry.CustomerID,
		MembershipID:  entry.MembershipID,
		Action:        entry.Action,
		Type:          string(entry.Tier),
		Amount:        entry.Amount,
		PaymentMethod: entry.PaymentMethod,
	}

	resp, err := c.do(ctx, http.MethodPost, endpointLogs, body)
	if err != nil {
		return err
	}
	return checkResponse(endpointLogs, resp)
}

// Ping checks that the API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, endpointMembers+"?limit=1", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.NewRemoteError(endpointMembers, resp.StatusCode, "clinic api unhealthy")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload interface{}) (*commonhttp.Response, error) {
	resp, err := c.http.DoJSON(ctx, method, c.baseURL+endpoint, payload)
	if err != nil {
		path := endpoint
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		return nil, errors.NewNetworkError(path, err)
	}
	return resp, nil
}

// checkResponse maps non-2xx answers, and 2xx answers carrying {"error": ...},
// to a RemoteError.
func checkResponse(endpoint string, resp *commonhttp.Response) error {
	msg := errorMessage(resp.Body)
	if !resp.OK() {
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return errors.NewRemoteError(endpoint, resp.StatusCode, msg)
	}
	if msg != "" {
		return errors.NewRemoteError(endpoint, resp.StatusCode, msg)
	}
	return nil
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return ""
	}
	switch v := envelope.Error.(type) {
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "request failed"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func createdID(body []byte) string {
	raw, err := models.DecodeObject(body)
	if err != nil {
		return ""
	}
	for _, key := range []string{"id", "insert_id"} {
		switch v := raw[key].(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
