package notifymembership

import (
	"context"
	"strings"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/common/validation"
)

type Service struct {
	config    *Config
	email     EmailSender
	sms       SMSSender
	customers CustomerLookup
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		email:     deps.Email,
		sms:       deps.SMS,
		customers: deps.Customers,
		logger:    deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	name := strings.TrimSpace(input.CustomerName)

	if email == "" && phone == "" && s.customers != nil {
		customer, err := s.customers.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return nil, err
		}
		email, phone = customer.Email, customer.Phone
		if name == "" {
			name = customer.FullName()
		}
	}

	r := newReceipt(input, name, s.config.ClinicName)
	out := &Output{}

	if email != "" && s.config.EmailEnabled && s.email != nil {
		if !validation.ValidateEmail(email) {
			return nil, errors.NewValidationError("email", "invalid email address")
		}
		html, err := r.html()
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		id, err := s.email.SendEmail(ctx, email, r.subject(), r.text(), html)
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		out.EmailSent, out.EmailMessageID = true, id
	}

	if phone != "" && s.config.SMSEnabled && s.sms != nil {
		if !validation.ValidatePhone(phone) {
			return nil, errors.NewValidationError("phone", "invalid phone number")
		}
		id, err := s.sms.SendSMS(ctx, phone, r.sms())
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("sms", err)
		}
		out.SMSSent, out.SMSMessageID = true, id
	}

	s.logger.Info("Membership receipt processed", map[string]interface{}{
		"customerId":   input.CustomerID,
		"membershipId": input.MembershipID,
		"emailSent":    out.EmailSent,
		"smsSent":      out.SMSSent,
	})
	return out, nil
}
