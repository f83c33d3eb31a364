// Package message turns validated third-party alerts into customer-facing
// push notification text.
package message

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // America/Chicago must resolve on hosts without a zoneinfo database

	"notification-delivery/internal/notification/dto"

	"github.com/shopspring/decimal"
)

// Alert type codes the pipeline knows how to render
const (
	AlertTypeTransaction      = "txn"
	AlertTypeBalanceThreshold = "bal"
)

const (
	purchaseTitle = "Purchase alert"
	balanceTitle  = "Balance alert"

	// centralTimeLayout renders e.g. "May 01 2025, 11:58 AM"
	centralTimeLayout = "January 02 2006, 03:04 PM"
)

var (
	ErrMessageMapRequired       = errors.New("message_map field is required to construct a purchase notification message")
	ErrPurchaseFieldsRequired   = errors.New("amount, merchant_name, and transaction_time fields are required to construct a purchase notification message")
	ErrBalanceThresholdRequired = errors.New("balance_threshold field is required to construct a balance alert message")
	ErrUnsupportedAlertType     = errors.New("unsupported alert type")
)

var centralTime = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// Content is a rendered notification
type Content struct {
	AlertType string `json:"alert_type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// ConvertEpochToCentralTime converts epoch milliseconds to US Central wall-clock
// time, without seconds.
func ConvertEpochToCentralTime(epochMs int64) string {
	return time.UnixMilli(epochMs).In(centralTime).Format(centralTimeLayout)
}

// ConstructPurchaseNotificationMessage builds the pending-charge text from the
// request's message map.
func ConstructPurchaseNotificationMessage(req *dto.ThirdPartyNotificationRequest) (string, error) {
	if req == nil || req.MessageMap == nil {
		return "", ErrMessageMapRequired
	}

	mm := req.MessageMap
	if mm.Amount.IsZero() || mm.MerchantName == "" || mm.TransactionTime == 0 {
		return "", ErrPurchaseFieldsRequired
	}

	formattedTime := ConvertEpochToCentralTime(mm.TransactionTime)
	// Amounts keep their exact decimal value, so half cents round away from zero (2.675 -> 2.68)
	return fmt.Sprintf("Pending charge for $%s from %s at %s CT", mm.Amount.Abs().StringFixed(2), mm.MerchantName, formattedTime), nil
}

// ConstructBalanceExceedMessage builds the balance-threshold text
func ConstructBalanceExceedMessage(balanceThreshold decimal.Decimal) string {
	return fmt.Sprintf("Your balance just passed the $%s alert you set. Manage your account with confidence - tap to review.", balanceThreshold.StringFixed(2))
}

// Build renders the notification for the request's alert type
func Build(req *dto.ThirdPartyNotificationRequest) (Content, error) {
	switch req.AlertTypeCode {
	case AlertTypeTransaction:
		body, err := ConstructPurchaseNotificationMessage(req)
		if err != nil {
			return Content{}, err
		}
		return Content{AlertType: AlertTypeTransaction, Title: purchaseTitle, Body: body}, nil

	case AlertTypeBalanceThreshold:
		if req.MessageMap == nil || req.MessageMap.BalanceThreshold.IsZero() {
			return Content{}, ErrBalanceThresholdRequired
		}
		return Content{
			AlertType: AlertTypeBalanceThreshold,
			Title:     balanceTitle,
			Body:      ConstructBalanceExceedMessage(req.MessageMap.BalanceThreshold),
		}, nil

	default:
		return Content{}, fmt.Errorf("%w: %q", ErrUnsupportedAlertType, req.AlertTypeCode)
	}
}
