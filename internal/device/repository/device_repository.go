package repository

import (
	"context"
	"errors"
	"fmt"

	"notification-delivery/internal/device/domain"

	"gorm.io/gorm"
)

var (
	ErrUnknownPlatform  = errors.New("unknown device platform")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDeviceNotFound   = errors.New("device not found")
)

// DeviceRepository defines read and maintenance operations on the push device tables
type DeviceRepository interface {
	// FindActiveByCustomerUUID returns the active devices of one platform linked to the customer
	FindActiveByCustomerUUID(ctx context.Context, platform domain.Platform, customerUUID string) ([]domain.Device, error)

	// RegisterDevice upserts a device by registration id and links it to the customer
	RegisterDevice(ctx context.Context, in RegisterDeviceInput) (domain.Device, error)

	// DeactivateDevice marks a registration as inactive
	DeactivateDevice(ctx context.Context, platform domain.Platform, registrationID string) error
}

// RegisterDeviceInput carries the fields accepted when registering a device
type RegisterDeviceInput struct {
	Platform       domain.Platform
	RegistrationID string
	CustomerUUID   string
	DeviceID       string
	Name           string
	ApplicationID  string
}

// deviceTable describes how one platform is laid out in the database
type deviceTable struct {
	name    string
	link    string
	linkFK  string
	find    func(q *gorm.DB) ([]domain.Device, error)
	load    func(tx *gorm.DB, id uint) (domain.Device, error)
	build   func(in RegisterDeviceInput) domain.Device
	newLink func(deviceID, userID uint) interface{}
}

var customerTable = domain.Customer{}.TableName()

var deviceTables = map[domain.Platform]deviceTable{
	domain.PlatformAPNS: {
		name:   domain.APNSDevice{}.TableName(),
		link:   domain.APNSDeviceUser{}.TableName(),
		linkFK: "apnsdevice_id",
		find:   findDevices[domain.APNSDevice],
		load:   loadDevice[domain.APNSDevice],
		build: func(in RegisterDeviceInput) domain.Device {
			return &domain.APNSDevice{BaseDevice: newBase(in), DeviceID: in.DeviceID}
		},
		newLink: func(deviceID, userID uint) interface{} {
			return &domain.APNSDeviceUser{APNSDeviceID: deviceID, UserID: userID}
		},
	},
	domain.PlatformGCM: {
		name:   domain.GCMDevice{}.TableName(),
		link:   domain.GCMDeviceUser{}.TableName(),
		linkFK: "gcmdevice_id",
		find:   findDevices[domain.GCMDevice],
		load:   loadDevice[domain.GCMDevice],
		build: func(in RegisterDeviceInput) domain.Device {
			return &domain.GCMDevice{BaseDevice: newBase(in), DeviceID: in.DeviceID, CloudMessageType: "FCM"}
		},
		newLink: func(deviceID, userID uint) interface{} {
			return &domain.GCMDeviceUser{GCMDeviceID: deviceID, UserID: userID}
		},
	},
	domain.PlatformWebPush: {
		name:   domain.WebPushDevice{}.TableName(),
		link:   domain.WebPushDeviceUser{}.TableName(),
		linkFK: "webpushdevice_id",
		find:   findDevices[domain.WebPushDevice],
		load:   loadDevice[domain.WebPushDevice],
		build: func(in RegisterDeviceInput) domain.Device {
			return &domain.WebPushDevice{BaseDevice: newBase(in)}
		},
		newLink: func(deviceID, userID uint) interface{} {
			return &domain.WebPushDeviceUser{WebPushDeviceID: deviceID, UserID: userID}
		},
	},
	domain.PlatformWNS: {
		name:   domain.WNSDevice{}.TableName(),
		link:   domain.WNSDeviceUser{}.TableName(),
		linkFK: "wnsdevice_id",
		find:   findDevices[domain.WNSDevice],
		load:   loadDevice[domain.WNSDevice],
		build: func(in RegisterDeviceInput) domain.Device {
			return &domain.WNSDevice{BaseDevice: newBase(in), DeviceID: in.DeviceID}
		},
		newLink: func(deviceID, userID uint) interface{} {
			return &domain.WNSDeviceUser{WNSDeviceID: deviceID, UserID: userID}
		},
	},
}

func newBase(in RegisterDeviceInput) domain.BaseDevice {
	return domain.BaseDevice{
		Name:           in.Name,
		Active:         true,
		ApplicationID:  in.ApplicationID,
		RegistrationID: in.RegistrationID,
	}
}

func findDevices[T domain.Device](q *gorm.DB) ([]domain.Device, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	devices := make([]domain.Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, row)
	}
	return devices, nil
}

func loadDevice[T domain.Device](tx *gorm.DB, id uint) (domain.Device, error) {
	var row T
	if err := tx.First(&row, id).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// deviceRepository implements DeviceRepository with GORM
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of deviceRepository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

func (r *deviceRepository) FindActiveByCustomerUUID(ctx context.Context, platform domain.Platform, customerUUID string) ([]domain.Device, error) {
	t, ok := deviceTables[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}

	q := r.db.WithContext(ctx).
		Table(t.name).
		Select(t.name+".*").
		Joins(fmt.Sprintf("JOIN %s ON %s.%s = %s.id", t.link, t.link, t.linkFK, t.name)).
		Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.user_id", customerTable, customerTable, t.link)).
		Where(customerTable+".customer_uuid = ? AND "+t.name+".active = ?", customerUUID, true).
		Order(t.name + ".id")

	return t.find(q)
}

// RegisterDevice runs the customer lookup, device upsert and link insert in one transaction
func (r *deviceRepository) RegisterDevice(ctx context.Context, in RegisterDeviceInput) (domain.Device, error) {
	t, ok := deviceTables[in.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, in.Platform)
	}

	var device domain.Device
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer domain.Customer
		if err := tx.Where("customer_uuid = ?", in.CustomerUUID).First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		var ids []uint
		if err := tx.Table(t.name).Where("registration_id = ?", in.RegistrationID).Limit(1).Pluck("id", &ids).Error; err != nil {
			return err
		}

		var deviceID uint
		if len(ids) == 0 {
			model := t.build(in)
			if err := tx.Create(model).Error; err != nil {
				return err
			}
			deviceID = model.PrimaryKey()
		} else {
			deviceID = ids[0]
			updates := map[string]interface{}{"active": true}
			if in.Name != "" {
				updates["name"] = in.Name
			}
			if err := tx.Table(t.name).Where("id = ?", deviceID).Updates(updates).Error; err != nil {
				return err
			}
		}

		var links int64
		if err := tx.Table(t.link).Where(t.linkFK+" = ? AND user_id = ?", deviceID, customer.ID).Count(&links).Error; err != nil {
			return err
		}
		if links == 0 {
			if err := tx.Create(t.newLink(deviceID, customer.ID)).Error; err != nil {
				return err
			}
		}

		loaded, err := t.load(tx, deviceID)
		if err != nil {
			return err
		}
		device = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

func (r *deviceRepository) DeactivateDevice(ctx context.Context, platform domain.Platform, registrationID string) error {
	t, ok := deviceTables[platform]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}

	res := r.db.WithContext(ctx).Table(t.name).Where("registration_id = ?", registrationID).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
