package delivery

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"notification-delivery/internal/device/domain"
	"notification-delivery/internal/device/repository"
	"notification-delivery/internal/notification"
	"notification-delivery/internal/notification/dto"
	"notification-delivery/internal/notification/message"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Notifier is the part of *notification.Service the handlers call
type Notifier interface {
	Notify(ctx context.Context, customerUUID string, req *dto.ThirdPartyNotificationRequest) (*notification.Result, error)
	Devices(ctx context.Context, customerUUID string) []domain.Device
}

// AlertHandler serves alert intake and device maintenance
type AlertHandler struct {
	notifier     Notifier
	deviceRepo   repository.DeviceRepository
	queryTimeout time.Duration
}

func NewAlertHandler(notifier Notifier, deviceRepo repository.DeviceRepository, queryTimeout time.Duration) *AlertHandler {
	return &AlertHandler{
		notifier:     notifier,
		deviceRepo:   deviceRepo,
		queryTimeout: queryTimeout,
	}
}

// RegisterDeviceRequest is the body of POST /api/devices
type RegisterDeviceRequest struct {
	Platform       string `json:"platform" binding:"required"`
	RegistrationID string `json:"registration_id" binding:"required"`
	CustomerUUID   string `json:"customer_uuid" binding:"required,uuid"`
	DeviceID       string `json:"device_id"`
	Name           string `json:"name"`
	ApplicationID  string `json:"application_id"`
}

// DeviceResponse is the public view of a device; the push token is never exposed
type DeviceResponse struct {
	ID       uint            `json:"id"`
	Platform domain.Platform `json:"platform"`
	Name     string          `json:"name"`
	Active   bool            `json:"active"`
}

func toDeviceResponse(d domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:       d.PrimaryKey(),
		Platform: d.Platform(),
		Name:     d.Label(),
		Active:   d.IsActive(),
	}
}

func (h *AlertHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.queryTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.queryTimeout)
}

// CreateAlert accepts a third-party alert and hands it to the customer's devices
// POST /api/customers/:customerUUID/alerts
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	customerUUID, ok := customerParam(c)
	if !ok {
		return
	}

	var req dto.ThirdPartyNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve *dto.ValidationError
		if errors.As(dto.AsValidationError(err), &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification request", "fields": ve.Fields})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.notifier.Notify(ctx, customerUUID, &req)
	if err != nil {
		if isMessageError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[AlertHandler] Notify failed for customer %s: %v", customerUUID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process alert"})
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// GetDevices lists the customer's active devices on every platform
// GET /api/customers/:customerUUID/devices
func (h *AlertHandler) GetDevices(c *gin.Context) {
	customerUUID, ok := customerParam(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	devices := h.notifier.Devices(ctx, customerUUID)
	resp := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, toDeviceResponse(d))
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": resp,
		"count":   len(resp),
	})
}

// RegisterDevice links a push registration to a customer
// POST /api/devices
func (h *AlertHandler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	device, err := h.deviceRepo.RegisterDevice(ctx, repository.RegisterDeviceInput{
		Platform:       platform,
		RegistrationID: req.RegistrationID,
		CustomerUUID:   req.CustomerUUID,
		DeviceID:       req.DeviceID,
		Name:           req.Name,
		ApplicationID:  req.ApplicationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		case errors.Is(err, repository.ErrUnknownPlatform):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("[AlertHandler] Failed to register %s device: %v", platform, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		}
		return
	}

	c.JSON(http.StatusCreated, toDeviceResponse(device))
}

// DeactivateDevice marks a registration inactive
// DELETE /api/devices/:platform/:registrationId
func (h *AlertHandler) DeactivateDevice(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.deviceRepo.DeactivateDevice(ctx, platform, c.Param("registrationId")); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		log.Printf("[AlertHandler] Failed to deactivate %s device: %v", platform, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device deactivated"})
}

func customerParam(c *gin.Context) (string, bool) {
	raw := c.Param("customerUUID")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer UUID"})
		return "", false
	}
	return id.String(), true
}

func isMessageError(err error) bool {
	return errors.Is(err, message.ErrUnsupportedAlertType) ||
		errors.Is(err, message.ErrMessageMapRequired) ||
		errors.Is(err, message.ErrPurchaseFieldsRequired) ||
		errors.Is(err, message.ErrBalanceThresholdRequired)
}
