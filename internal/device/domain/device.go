package domain

import (
	"fmt"
	"time"
)

// Platform identifies a push platform and the device table that backs it
type Platform string

const (
	PlatformAPNS    Platform = "apns"
	PlatformGCM     Platform = "gcm"
	PlatformWebPush Platform = "webpush"
	PlatformWNS     Platform = "wns"
)

// AllPlatforms returns every supported platform in lookup order
func AllPlatforms() []Platform {
	return []Platform{PlatformAPNS, PlatformGCM, PlatformWebPush, PlatformWNS}
}

// ParsePlatform validates a platform name
func ParsePlatform(s string) (Platform, error) {
	for _, p := range AllPlatforms() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Device is the common view over the four device models
type Device interface {
	Platform() Platform
	Token() string
	PrimaryKey() uint
	IsActive() bool
	Label() string
}

// BaseDevice holds the columns shared by every push_notifications device table
type BaseDevice struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name,omitempty" gorm:"size:255"`
	Active         bool      `json:"active" gorm:"not null;index"`
	DateCreated    time.Time `json:"date_created" gorm:"autoCreateTime"`
	ApplicationID  string    `json:"application_id,omitempty" gorm:"size:64"`
	RegistrationID string    `json:"-" gorm:"not null;index"` // push token, never exposed
}

func (b BaseDevice) Token() string    { return b.RegistrationID }
func (b BaseDevice) PrimaryKey() uint { return b.ID }
func (b BaseDevice) IsActive() bool   { return b.Active }

// Label returns a display name for the device
func (b BaseDevice) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("device-%d", b.ID)
}

// APNSDevice is an Apple Push Notification service registration
type APNSDevice struct {
	BaseDevice
	DeviceID string `json:"device_id,omitempty" gorm:"size:36;index"`
}

func (APNSDevice) TableName() string  { return "push_notifications_apnsdevice" }
func (APNSDevice) Platform() Platform { return PlatformAPNS }

// GCMDevice is a Google/Firebase Cloud Messaging registration
type GCMDevice struct {
	BaseDevice
	DeviceID         string `json:"device_id,omitempty" gorm:"size:32;index"` // hex integer
	CloudMessageType string `json:"cloud_message_type" gorm:"size:3;default:'FCM'"`
}

func (GCMDevice) TableName() string  { return "push_notifications_gcmdevice" }
func (GCMDevice) Platform() Platform { return PlatformGCM }

// WebPushDevice is a browser push subscription
type WebPushDevice struct {
	BaseDevice
	Browser string `json:"browser,omitempty" gorm:"size:10"`
	P256DH  string `json:"-" gorm:"column:p256dh;size:88"`
	Auth    string `json:"-" gorm:"size:24"`
}

func (WebPushDevice) TableName() string  { return "push_notifications_webpushdevice" }
func (WebPushDevice) Platform() Platform { return PlatformWebPush }

// WNSDevice is a Windows Notification Service registration
type WNSDevice struct {
	BaseDevice
	DeviceID string `json:"device_id,omitempty" gorm:"size:36;index"`
}

func (WNSDevice) TableName() string  { return "push_notifications_wnsdevice" }
func (WNSDevice) Platform() Platform { return PlatformWNS }
