package notifymembership

import (
	"context"

	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/models"
)

// Input is usually the output of membership.evaluate plus contact details.
// Missing contact details are looked up from the clinic API.
type Input struct {
	CustomerID   string      `json:"customerId"`
	CustomerName string      `json:"customerName,omitempty"`
	Email        string      `json:"email,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	MembershipID string      `json:"membershipId,omitempty"`
	Action       string      `json:"action"`
	Tier         string      `json:"tier"`
	Coverage     float64     `json:"coverage"`
	ExpireDate   interface{} `json:"expireDate,omitempty"`
}

type Output struct {
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
}

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// CustomerLookup is satisfied by clinicapi.Client.
type CustomerLookup interface {
	GetCustomer(ctx context.Context, customerID string) (*models.Customer, error)
}

type ServiceDependencies struct {
	Email     EmailSender
	SMS       SMSSender
	Customers CustomerLookup
	Logger    logger.Logger
}
