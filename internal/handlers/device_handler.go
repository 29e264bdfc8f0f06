package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DeviceHandler registers push tokens consumed by the notification worker
type DeviceHandler struct {
	devices repositories.DeviceTokenRepository
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(devices repositories.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// RegisterDeviceRoutes registers device token routes
func (h *DeviceHandler) RegisterDeviceRoutes(g *echo.Group) {
	g.POST("/devices", h.RegisterDevice)
	g.GET("/devices", h.ListDevices)
	g.DELETE("/devices", h.UnregisterDevice)
}

// RegisterDevice stores or re-assigns a push token to the current user
func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.RegisterDeviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token := &models.DeviceToken{UserID: currentUserID, Token: req.Token, Platform: req.Platform}
	if err := h.devices.Upsert(c.Request().Context(), token); err != nil {
		logg.Error("device", "failed to register device", err, zap.Uint("user_id", currentUserID))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register device")
	}
	return ok(c, http.StatusCreated, echo.Map{"device": token})
}

func (h *DeviceHandler) ListDevices(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	devices, err := h.devices.ListByUser(c.Request().Context(), currentUserID)
	if err != nil {
		logg.Error("device", "failed to list devices", err, zap.Uint("user_id", currentUserID))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list devices")
	}
	if devices == nil {
		devices = []models.DeviceToken{}
	}
	return ok(c, http.StatusOK, echo.Map{"devices": devices})
}

// UnregisterDeviceRequest carries the token in the body; FCM tokens are not path safe
type UnregisterDeviceRequest struct {
	Token string `json:"token" validate:"required"`
}

// UnregisterDevice removes one of the current user's push tokens
func (h *DeviceHandler) UnregisterDevice(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req UnregisterDeviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.devices.Delete(c.Request().Context(), currentUserID, req.Token); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Device not registered")
		}
		logg.Error("device", "failed to unregister device", err, zap.Uint("user_id", currentUserID))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to unregister device")
	}
	return c.NoContent(http.StatusNoContent)
}
