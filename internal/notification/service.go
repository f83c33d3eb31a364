package notification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strconv"
	"strings"

	"notification-delivery/internal/device/domain"
	"notification-delivery/internal/device/repository"
	"notification-delivery/internal/device/usecase"
	"notification-delivery/internal/notification/dto"
	"notification-delivery/internal/notification/message"
	"notification-delivery/pkg/dedup"
	"notification-delivery/pkg/fcm"
	"notification-delivery/pkg/metrics"
)

// Sender hands a notification to a push SDK. *fcm.Client satisfies it.
type Sender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) (*fcm.SendResult, error)
}

// Result summarises what happened to one alert
type Result struct {
	Duplicate bool                    `json:"duplicate"`
	AlertType string                  `json:"alert_type,omitempty"`
	Title     string                  `json:"title,omitempty"`
	Body      string                  `json:"body,omitempty"`
	Devices   int                     `json:"devices"`
	Handed    map[domain.Platform]int `json:"handed,omitempty"`
	Failed    map[domain.Platform]int `json:"failed,omitempty"`
	Skipped   map[domain.Platform]int `json:"skipped,omitempty"`
}

type Service struct {
	lookup     usecase.DeviceLookup
	deviceRepo repository.DeviceRepository
	senders    map[domain.Platform]Sender
	dedupStore dedup.Store
}

// NewService wires the pipeline. senders may omit platforms; their devices are
// counted as skipped. dedupStore may be nil to disable de-duplication.
func NewService(lookup usecase.DeviceLookup, deviceRepo repository.DeviceRepository, senders map[domain.Platform]Sender, dedupStore dedup.Store) *Service {
	if senders == nil {
		senders = map[domain.Platform]Sender{}
	}
	return &Service{
		lookup:     lookup,
		deviceRepo: deviceRepo,
		senders:    senders,
		dedupStore: dedupStore,
	}
}

// Devices exposes the fan-out lookup to the HTTP and CLI layers
func (s *Service) Devices(ctx context.Context, customerUUID string) []domain.Device {
	return s.lookup.GetUserDevices(ctx, customerUUID)
}

// Notify renders the alert and hands it to the push SDK for every active device of the customer
func (s *Service) Notify(ctx context.Context, customerUUID string, req *dto.ThirdPartyNotificationRequest) (*Result, error) {
	content, err := message.Build(req)
	metrics.ObserveNotificationBuilt(req.AlertTypeCode, err)
	if err != nil {
		log.Printf("[Notify] Cannot build %q alert for customer %s: %v", req.AlertTypeCode, customerUUID, err)
		return nil, err
	}

	key := Fingerprint(customerUUID, req)
	marked := false
	if s.dedupStore != nil {
		isNew, err := s.dedupStore.MarkIfNew(ctx, key)
		if err != nil {
			log.Printf("[Dedup] Store unavailable, delivering anyway: %v", err)
		} else if !isNew {
			log.Printf("[Notify] Skipping duplicate %s alert for customer %s", content.AlertType, customerUUID)
			return &Result{Duplicate: true, AlertType: content.AlertType}, nil
		}
		marked = err == nil
	}

	result := s.deliver(ctx, customerUUID, req, content)

	// A redelivery must not be reported as a duplicate of an alert nobody received
	if marked && result.handedTotal() == 0 {
		if err := s.dedupStore.Forget(ctx, key); err != nil {
			log.Printf("[Dedup] Failed to release undelivered alert for customer %s: %v", customerUUID, err)
		}
	}
	return result, nil
}

func (s *Service) deliver(ctx context.Context, customerUUID string, req *dto.ThirdPartyNotificationRequest, content message.Content) *Result {
	devices := s.lookup.GetUserDevices(ctx, customerUUID)
	result := &Result{
		AlertType: content.AlertType,
		Title:     content.Title,
		Body:      content.Body,
		Devices:   len(devices),
		Handed:    map[domain.Platform]int{},
		Failed:    map[domain.Platform]int{},
		Skipped:   map[domain.Platform]int{},
	}

	if len(devices) == 0 {
		log.Printf("[Notify] No active devices for customer %s, nothing to send", customerUUID)
		return result
	}

	notification := fcm.NotificationData{
		Title: content.Title,
		Body:  content.Body,
		Data: map[string]string{
			"type":           content.AlertType,
			"alert_category": req.AlertCategory,
		},
	}

	for _, platform := range domain.AllPlatforms() {
		tokens := tokensFor(devices, platform)
		if len(tokens) == 0 {
			continue
		}

		sender, ok := s.senders[platform]
		if !ok {
			log.Printf("[Notify] No sender configured for %s, skipping %d device(s)", platform, len(tokens))
			result.Skipped[platform] = len(tokens)
			metrics.ObservePushHandoff(string(platform), metrics.StatusSkipped, len(tokens))
			continue
		}

		sent, err := sender.SendToDevices(ctx, tokens, notification)
		if err != nil {
			log.Printf("[Notify] Error handing %s notification to push SDK: %v", platform, err)
			result.Failed[platform] = len(tokens)
			metrics.ObservePushHandoff(string(platform), metrics.StatusError, len(tokens))
			continue
		}

		result.Handed[platform] = sent.Delivered
		result.Failed[platform] = len(sent.FailedTokens)
		metrics.ObservePushHandoff(string(platform), metrics.StatusOK, sent.Delivered)
		metrics.ObservePushHandoff(string(platform), metrics.StatusError, len(sent.FailedTokens))

		// Only registrations FCM no longer recognises are retired; quota and
		// server errors leave the device active for the next alert
		if len(sent.StaleTokens) > 0 {
			log.Printf("[Notify] Deactivating %d stale %s token(s)", len(sent.StaleTokens), platform)
			for _, token := range sent.StaleTokens {
				if err := s.deviceRepo.DeactivateDevice(ctx, platform, token); err != nil {
					log.Printf("[Notify] Failed to deactivate %s device: %v", platform, err)
				}
			}
		}
	}

	return result
}

func (r *Result) handedTotal() int {
	total := 0
	for _, n := range r.Handed {
		total += n
	}
	return total
}

func tokensFor(devices []domain.Device, platform domain.Platform) []string {
	var tokens []string
	for _, d := range devices {
		if d.Platform() == platform {
			tokens = append(tokens, d.Token())
		}
	}
	return tokens
}

// Fingerprint identifies an alert for de-duplication
func Fingerprint(customerUUID string, req *dto.ThirdPartyNotificationRequest) string {
	parts := []string{customerUUID, req.SubscriberReferenceID, req.CardReferenceID, req.AlertTypeCode}
	if mm := req.MessageMap; mm != nil {
		parts = append(parts,
			mm.Amount.String(),
			mm.MerchantName,
			strconv.FormatInt(mm.TransactionTime, 10),
			mm.BalanceThreshold.String(),
		)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
