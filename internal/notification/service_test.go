package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notification-delivery/internal/device/domain"
	"notification-delivery/internal/device/repository"
	"notification-delivery/internal/notification/dto"
	"notification-delivery/internal/notification/message"
	"notification-delivery/pkg/dedup"
	"notification-delivery/pkg/fcm"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	devices []domain.Device
	calls   int
}

func (s *stubLookup) GetUserDevices(ctx context.Context, customerUUID string) []domain.Device {
	s.calls++
	return s.devices
}

type recordingSender struct {
	mu     sync.Mutex
	tokens [][]string
	sent   []fcm.NotificationData
	failed []string
	stale  []string
	err    error
}

func (r *recordingSender) SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) (*fcm.SendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, tokens)
	r.sent = append(r.sent, n)
	if r.err != nil {
		return nil, r.err
	}
	return &fcm.SendResult{
		Delivered:    len(tokens) - len(r.failed),
		FailedTokens: r.failed,
		StaleTokens:  r.stale,
	}, nil
}

type deactivation struct {
	platform domain.Platform
	token    string
}

type stubDeviceRepo struct {
	deactivated []deactivation
}

func (s *stubDeviceRepo) FindActiveByCustomerUUID(ctx context.Context, platform domain.Platform, customerUUID string) ([]domain.Device, error) {
	return nil, nil
}

func (s *stubDeviceRepo) RegisterDevice(ctx context.Context, in repository.RegisterDeviceInput) (domain.Device, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDeviceRepo) DeactivateDevice(ctx context.Context, platform domain.Platform, registrationID string) error {
	s.deactivated = append(s.deactivated, deactivation{platform, registrationID})
	return nil
}

type failingStore struct{}

func (failingStore) MarkIfNew(ctx context.Context, key string) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingStore) Forget(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func purchaseRequest() *dto.ThirdPartyNotificationRequest {
	return &dto.ThirdPartyNotificationRequest{
		AppToken:              "app",
		DeploymentToken:       "deploy",
		FiToken:               "fi",
		SubscriberReferenceID: "sub-1",
		CardReferenceID:       "card-1",
		AlertCategory:         "transaction",
		AlertTypeCode:         message.AlertTypeTransaction,
		MessageMap: &dto.MessageMap{
			Amount:          decimal.RequireFromString("-2.75"),
			MerchantName:    "COFFEE SHOP",
			TransactionTime: 1746118680000,
		},
	}
}

func gcmDevice(token string) domain.Device {
	return domain.GCMDevice{BaseDevice: domain.BaseDevice{RegistrationID: token, Active: true}}
}

func apnsDevice(token string) domain.Device {
	return domain.APNSDevice{BaseDevice: domain.BaseDevice{RegistrationID: token, Active: true}}
}

func TestNotify_HandsGCMTokensToSender(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1"), apnsDevice("a1"), gcmDevice("g2")}}
	sender := &recordingSender{}
	repo := &stubDeviceRepo{}
	svc := NewService(lookup, repo, map[domain.Platform]Sender{domain.PlatformGCM: sender}, nil)

	result, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)

	assert.False(t, result.Duplicate)
	assert.Equal(t, message.AlertTypeTransaction, result.AlertType)
	assert.Equal(t, "Purchase alert", result.Title)
	assert.Equal(t, "Pending charge for $2.75 from COFFEE SHOP at May 01 2025, 11:58 AM CT", result.Body)
	assert.Equal(t, 3, result.Devices)
	assert.Equal(t, 2, result.Handed[domain.PlatformGCM])
	assert.Equal(t, 1, result.Skipped[domain.PlatformAPNS])
	assert.Zero(t, result.Failed[domain.PlatformGCM])

	require.Len(t, sender.tokens, 1)
	assert.Equal(t, []string{"g1", "g2"}, sender.tokens[0])
	assert.Equal(t, result.Body, sender.sent[0].Body)
	assert.Equal(t, "txn", sender.sent[0].Data["type"])
	assert.Empty(t, repo.deactivated)
}

func TestNotify_DeactivatesStaleTokens(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1"), gcmDevice("stale")}}
	sender := &recordingSender{failed: []string{"stale"}, stale: []string{"stale"}}
	repo := &stubDeviceRepo{}
	svc := NewService(lookup, repo, map[domain.Platform]Sender{domain.PlatformGCM: sender}, nil)

	result, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Handed[domain.PlatformGCM])
	assert.Equal(t, 1, result.Failed[domain.PlatformGCM])
	assert.Equal(t, []deactivation{{domain.PlatformGCM, "stale"}}, repo.deactivated)
}

func TestNotify_TransientFailureKeepsDeviceActive(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1"), gcmDevice("busy"), gcmDevice("gone")}}
	sender := &recordingSender{failed: []string{"busy", "gone"}, stale: []string{"gone"}}
	repo := &stubDeviceRepo{}
	svc := NewService(lookup, repo, map[domain.Platform]Sender{domain.PlatformGCM: sender}, nil)

	result, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Handed[domain.PlatformGCM])
	assert.Equal(t, 2, result.Failed[domain.PlatformGCM])
	assert.Equal(t, []deactivation{{domain.PlatformGCM, "gone"}}, repo.deactivated)
}

func TestNotify_SenderErrorCountsAllTokensFailed(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1"), gcmDevice("g2")}}
	sender := &recordingSender{err: errors.New("unavailable")}
	repo := &stubDeviceRepo{}
	svc := NewService(lookup, repo, map[domain.Platform]Sender{domain.PlatformGCM: sender}, nil)

	result, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Failed[domain.PlatformGCM])
	assert.Zero(t, result.Handed[domain.PlatformGCM])
	assert.Empty(t, repo.deactivated)
}

func TestNotify_NoDevices(t *testing.T) {
	svc := NewService(&stubLookup{devices: []domain.Device{}}, &stubDeviceRepo{}, nil, nil)

	result, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.Zero(t, result.Devices)
	assert.Empty(t, result.Handed)
}

func TestNotify_BuildErrorSkipsLookup(t *testing.T) {
	lookup := &stubLookup{}
	svc := NewService(lookup, &stubDeviceRepo{}, nil, nil)

	req := purchaseRequest()
	req.AlertTypeCode = "zzz"
	_, err := svc.Notify(context.Background(), "cust-1", req)
	assert.ErrorIs(t, err, message.ErrUnsupportedAlertType)

	req = purchaseRequest()
	req.MessageMap = nil
	_, err = svc.Notify(context.Background(), "cust-1", req)
	assert.ErrorIs(t, err, message.ErrMessageMapRequired)

	assert.Zero(t, lookup.calls)
}

func TestNotify_Duplicate(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1")}}
	sender := &recordingSender{}
	svc := NewService(lookup, &stubDeviceRepo{}, map[domain.Platform]Sender{domain.PlatformGCM: sender}, dedup.NewMemoryStore(time.Hour))

	first, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	assert.Equal(t, 1, lookup.calls)
	assert.Len(t, sender.tokens, 1)
}

func TestNotify_RedeliveryAfterFailedSendIsNotDuplicate(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1")}}
	sender := &recordingSender{err: errors.New("unavailable")}
	svc := NewService(lookup, &stubDeviceRepo{}, map[domain.Platform]Sender{domain.PlatformGCM: sender}, dedup.NewMemoryStore(time.Hour))

	first, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, 1, first.Failed[domain.PlatformGCM])

	sender.err = nil
	second, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.False(t, second.Duplicate)
	assert.Equal(t, 1, second.Handed[domain.PlatformGCM])

	third, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.True(t, third.Duplicate)

	assert.Len(t, sender.tokens, 2)
}

func TestNotify_RedeliveryAfterNoDevicesIsNotDuplicate(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{}}
	sender := &recordingSender{}
	svc := NewService(lookup, &stubDeviceRepo{}, map[domain.Platform]Sender{domain.PlatformGCM: sender}, dedup.NewMemoryStore(time.Hour))

	first, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.Zero(t, first.Devices)

	lookup.devices = []domain.Device{gcmDevice("g1")}
	second, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.False(t, second.Duplicate)
	assert.Equal(t, 1, second.Handed[domain.PlatformGCM])
}

func TestNotify_DedupStoreErrorStillDelivers(t *testing.T) {
	lookup := &stubLookup{devices: []domain.Device{gcmDevice("g1")}}
	sender := &recordingSender{}
	svc := NewService(lookup, &stubDeviceRepo{}, map[domain.Platform]Sender{domain.PlatformGCM: sender}, failingStore{})

	result, err := svc.Notify(context.Background(), "cust-1", purchaseRequest())
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, result.Handed[domain.PlatformGCM])
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("cust-1", purchaseRequest())
	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint("cust-1", purchaseRequest()))

	assert.NotEqual(t, base, Fingerprint("cust-2", purchaseRequest()))

	other := purchaseRequest()
	other.MessageMap.TransactionTime++
	assert.NotEqual(t, base, Fingerprint("cust-1", other))

	balance := purchaseRequest()
	balance.AlertTypeCode = message.AlertTypeBalanceThreshold
	assert.NotEqual(t, base, Fingerprint("cust-1", balance))
}
