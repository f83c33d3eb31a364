package usecase

import (
	"context"
	"fmt"
	"log"

	"notification-delivery/internal/device/domain"
	"notification-delivery/internal/device/repository"
	"notification-delivery/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// DeviceLookup finds a customer's push devices across every platform
type DeviceLookup interface {
	GetUserDevices(ctx context.Context, customerUUID string) []domain.Device
}

// deviceLookup implements DeviceLookup by querying each platform table concurrently
type deviceLookup struct {
	deviceRepo repository.DeviceRepository
	platforms  []domain.Platform
}

// NewDeviceLookup creates a lookup over all supported platforms
func NewDeviceLookup(deviceRepo repository.DeviceRepository) DeviceLookup {
	return &deviceLookup{
		deviceRepo: deviceRepo,
		platforms:  domain.AllPlatforms(),
	}
}

// GetUserDevices returns all active devices of the customer. A platform whose query
// fails contributes no devices; the others are still returned.
func (l *deviceLookup) GetUserDevices(ctx context.Context, customerUUID string) []domain.Device {
	results := make([][]domain.Device, len(l.platforms))

	var g errgroup.Group
	for i, platform := range l.platforms {
		g.Go(func() error {
			results[i] = l.getDevices(ctx, platform, customerUUID)
			return nil
		})
	}
	// Branches never return an error; Wait only joins them.
	_ = g.Wait()

	devices := make([]domain.Device, 0)
	for _, r := range results {
		devices = append(devices, r...)
	}
	return devices
}

// getDevices queries one platform, turning errors and panics into an empty result
func (l *deviceLookup) getDevices(ctx context.Context, platform domain.Platform, customerUUID string) (devices []domain.Device) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Printf("[DeviceLookup] Failed to query %s devices for customer %s: %v", platform, customerUUID, err)
			metrics.ObserveDeviceLookup(string(platform), err)
			devices = nil
		}
	}()

	found, err := l.deviceRepo.FindActiveByCustomerUUID(ctx, platform, customerUUID)
	metrics.ObserveDeviceLookup(string(platform), err)
	if err != nil {
		log.Printf("[DeviceLookup] Failed to query %s devices for customer %s: %v", platform, customerUUID, err)
		return nil
	}
	return found
}
