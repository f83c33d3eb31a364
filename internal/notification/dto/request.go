package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ThirdPartyNotificationRequest is the alert payload posted by the card processor
type ThirdPartyNotificationRequest struct {
	AppToken                 string      `json:"appToken" binding:"required"`
	DeploymentToken          string      `json:"deploymentToken" binding:"required"`
	FiToken                  string      `json:"fiToken" binding:"required"`
	SubscriberReferenceID    string      `json:"subscriberReferenceId" binding:"required"`
	Language                 string      `json:"language,omitempty"`
	CardReferenceID          string      `json:"cardReferenceId,omitempty"`
	AlertCategory            string      `json:"alertCategory" binding:"required"`
	AlertTypeCode            string      `json:"alertTypeCode" binding:"required"`
	Message                  string      `json:"message,omitempty"` // vendor text, not shown to customers
	MessageMap               *MessageMap `json:"messageMap,omitempty"`
	MemberSequenceIdentifier string      `json:"memberSequenceIdentifier,omitempty"`
}

// MessageMap holds the structured fields the customer-facing text is built from
type MessageMap struct {
	Amount           decimal.Decimal `json:"amount"`
	MerchantName     string          `json:"merchantName,omitempty"`
	TransactionTime  int64           `json:"transactionTime,omitempty"` // epoch milliseconds
	BalanceThreshold decimal.Decimal `json:"balanceThreshold"`
}

// ValidationError lists the fields that failed schema validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid notification request: " + strings.Join(e.Fields, ", ")
}

// validate shares gin's tag name so the same struct tags drive both paths
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// ParseThirdPartyNotificationRequest decodes and validates a JSON payload
func ParseThirdPartyNotificationRequest(data []byte) (*ThirdPartyNotificationRequest, error) {
	var req ThirdPartyNotificationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode notification request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks the struct against its binding tags
func (r *ThirdPartyNotificationRequest) Validate() error {
	return AsValidationError(validate.Struct(r))
}

// AsValidationError converts validator errors into a ValidationError.
// Other errors are returned unchanged.
func AsValidationError(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]string, len(ve))
	for i, fe := range ve {
		fields[i] = fe.Field() + " " + fe.Tag()
	}
	return &ValidationError{Fields: fields}
}
