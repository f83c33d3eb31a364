package repository

import (
	"context"
	"testing"

	"notification-delivery/internal/device/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with every device table migrated.
// A single connection keeps the in-memory database alive for the whole test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

func createCustomer(t *testing.T, db *gorm.DB, username string) domain.Customer {
	t.Helper()
	c := domain.Customer{Username: username, CustomerUUID: uuid.NewString()}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func createAPNS(t *testing.T, db *gorm.DB, owner domain.Customer, token string, active bool) domain.APNSDevice {
	t.Helper()
	d := domain.APNSDevice{
		BaseDevice: domain.BaseDevice{RegistrationID: token, Active: active},
		DeviceID:   uuid.NewString(),
	}
	require.NoError(t, db.Create(&d).Error)
	require.NoError(t, db.Create(&domain.APNSDeviceUser{APNSDeviceID: d.ID, UserID: owner.ID}).Error)
	return d
}

func createGCM(t *testing.T, db *gorm.DB, owner domain.Customer, token string, active bool) domain.GCMDevice {
	t.Helper()
	d := domain.GCMDevice{
		BaseDevice: domain.BaseDevice{RegistrationID: token, Active: active},
		DeviceID:   "1f3a",
	}
	require.NoError(t, db.Create(&d).Error)
	require.NoError(t, db.Create(&domain.GCMDeviceUser{GCMDeviceID: d.ID, UserID: owner.ID}).Error)
	return d
}

func createWebPush(t *testing.T, db *gorm.DB, owner domain.Customer, token string) domain.WebPushDevice {
	t.Helper()
	d := domain.WebPushDevice{
		BaseDevice: domain.BaseDevice{RegistrationID: token, Active: true},
		Browser:    "CHROME",
	}
	require.NoError(t, db.Create(&d).Error)
	require.NoError(t, db.Create(&domain.WebPushDeviceUser{WebPushDeviceID: d.ID, UserID: owner.ID}).Error)
	return d
}

func createWNS(t *testing.T, db *gorm.DB, owner domain.Customer, token string) domain.WNSDevice {
	t.Helper()
	d := domain.WNSDevice{
		BaseDevice: domain.BaseDevice{RegistrationID: token, Active: true},
		DeviceID:   uuid.NewString(),
	}
	require.NoError(t, db.Create(&d).Error)
	require.NoError(t, db.Create(&domain.WNSDeviceUser{WNSDeviceID: d.ID, UserID: owner.ID}).Error)
	return d
}

func tokens(devices []domain.Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Token())
	}
	return out
}

func TestFindActiveByCustomerUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)
	ctx := context.Background()

	alice := createCustomer(t, db, "alice")
	bob := createCustomer(t, db, "bob")

	createAPNS(t, db, alice, "apns_alice", true)
	createAPNS(t, db, alice, "apns_alice_old", false)
	createAPNS(t, db, bob, "apns_bob", true)
	createGCM(t, db, alice, "gcm_alice", true)
	createWebPush(t, db, alice, "web_alice")
	createWNS(t, db, bob, "wns_bob")

	tests := []struct {
		name     string
		platform domain.Platform
		customer domain.Customer
		want     []string
	}{
		{"apns skips inactive and other customers", domain.PlatformAPNS, alice, []string{"apns_alice"}},
		{"gcm", domain.PlatformGCM, alice, []string{"gcm_alice"}},
		{"webpush", domain.PlatformWebPush, alice, []string{"web_alice"}},
		{"wns belongs to bob only", domain.PlatformWNS, alice, []string{}},
		{"bob apns", domain.PlatformAPNS, bob, []string{"apns_bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := repo.FindActiveByCustomerUUID(ctx, tt.platform, tt.customer.CustomerUUID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tokens(devices))
			for _, d := range devices {
				assert.Equal(t, tt.platform, d.Platform())
				assert.True(t, d.IsActive())
			}
		})
	}
}

func TestFindActiveByCustomerUUID_UnknownCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)

	devices, err := repo.FindActiveByCustomerUUID(context.Background(), domain.PlatformGCM, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestFindActiveByCustomerUUID_UnknownPlatform(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)

	_, err := repo.FindActiveByCustomerUUID(context.Background(), domain.Platform("blackberry"), uuid.NewString())
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestRegisterDevice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)
	ctx := context.Background()
	alice := createCustomer(t, db, "alice")

	in := RegisterDeviceInput{
		Platform:       domain.PlatformGCM,
		RegistrationID: "gcm_new_token",
		CustomerUUID:   alice.CustomerUUID,
		DeviceID:       "abc1",
		Name:           "Pixel",
	}

	first, err := repo.RegisterDevice(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformGCM, first.Platform())
	assert.Equal(t, "gcm_new_token", first.Token())
	assert.Equal(t, "Pixel", first.Label())
	assert.True(t, first.IsActive())

	require.NoError(t, repo.DeactivateDevice(ctx, domain.PlatformGCM, "gcm_new_token"))

	// Registering the same token again re-activates the existing row
	second, err := repo.RegisterDevice(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.PrimaryKey(), second.PrimaryKey())
	assert.True(t, second.IsActive())

	var links int64
	require.NoError(t, db.Model(&domain.GCMDeviceUser{}).Where("gcmdevice_id = ?", first.PrimaryKey()).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	devices, err := repo.FindActiveByCustomerUUID(ctx, domain.PlatformGCM, alice.CustomerUUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"gcm_new_token"}, tokens(devices))
}

func TestRegisterDevice_UnknownCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)

	_, err := repo.RegisterDevice(context.Background(), RegisterDeviceInput{
		Platform:       domain.PlatformAPNS,
		RegistrationID: "apns_token",
		CustomerUUID:   uuid.NewString(),
	})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.APNSDevice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeactivateDevice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)
	ctx := context.Background()
	alice := createCustomer(t, db, "alice")
	createWNS(t, db, alice, "wns_alice")

	require.NoError(t, repo.DeactivateDevice(ctx, domain.PlatformWNS, "wns_alice"))

	devices, err := repo.FindActiveByCustomerUUID(ctx, domain.PlatformWNS, alice.CustomerUUID)
	require.NoError(t, err)
	assert.Empty(t, devices)

	err = repo.DeactivateDevice(ctx, domain.PlatformWNS, "missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
