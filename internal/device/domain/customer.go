package domain

// Customer is the user row devices are linked to. The table belongs to the
// account service; only the columns read here are mapped.
type Customer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"size:150;uniqueIndex"`
	CustomerUUID string `json:"customer_uuid" gorm:"size:36;uniqueIndex;not null"`
}

func (Customer) TableName() string { return "base_app_user" }

// Link rows for the device <-> user many-to-many tables.

type APNSDeviceUser struct {
	ID           uint `gorm:"primaryKey"`
	APNSDeviceID uint `gorm:"column:apnsdevice_id;not null;index"`
	UserID       uint `gorm:"column:user_id;not null;index"`
}

func (APNSDeviceUser) TableName() string { return "push_notifications_apnsdevice_users" }

type GCMDeviceUser struct {
	ID          uint `gorm:"primaryKey"`
	GCMDeviceID uint `gorm:"column:gcmdevice_id;not null;index"`
	UserID      uint `gorm:"column:user_id;not null;index"`
}

func (GCMDeviceUser) TableName() string { return "push_notifications_gcmdevice_users" }

type WebPushDeviceUser struct {
	ID              uint `gorm:"primaryKey"`
	WebPushDeviceID uint `gorm:"column:webpushdevice_id;not null;index"`
	UserID          uint `gorm:"column:user_id;not null;index"`
}

func (WebPushDeviceUser) TableName() string { return "push_notifications_webpushdevice_users" }

type WNSDeviceUser struct {
	ID          uint `gorm:"primaryKey"`
	WNSDeviceID uint `gorm:"column:wnsdevice_id;not null;index"`
	UserID      uint `gorm:"column:user_id;not null;index"`
}

func (WNSDeviceUser) TableName() string { return "push_notifications_wnsdevice_users" }

// Models lists every mapped table, for auto-migration in development and tests
func Models() []interface{} {
	return []interface{}{
		&Customer{},
		&APNSDevice{}, &GCMDevice{}, &WebPushDevice{}, &WNSDevice{},
		&APNSDeviceUser{}, &GCMDeviceUser{}, &WebPushDeviceUser{}, &WNSDeviceUser{},
	}
}
