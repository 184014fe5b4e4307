package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/config"
	"github.com/davidemms/widgethub/internal/domain/device"
	"github.com/davidemms/widgethub/internal/domain/layout"
	"github.com/davidemms/widgethub/internal/http/middlewares"
)

type LayoutStore interface {
	GetByUserAndType(ctx context.Context, userID, deviceType string) (json.RawMessage, error)
	Save(ctx context.Context, deviceID, deviceType string, data json.RawMessage) error
}

type LayoutDeviceStore interface {
	FindByUserAndType(ctx context.Context, userID, typ string) (device.Device, error)
	Create(ctx context.Context, userID, name, typ string, apiKey *string) (device.Device, error)
}

// LayoutsHandler stores one widget arrangement per device type. The
// arrangement hangs off a device row; saving for a type the user has
// no device for creates an implicit one.
type LayoutsHandler struct {
	layouts LayoutStore
	devices LayoutDeviceStore
}

func NewLayoutsHandler(layouts LayoutStore, devices LayoutDeviceStore) *LayoutsHandler {
	return &LayoutsHandler{layouts: layouts, devices: devices}
}

func (h *LayoutsHandler) Get(ctx *gin.Context) {
	deviceType := ctx.Param("deviceType")

	if !device.IsValidType(deviceType) {
		RespondBadRequest(ctx, "Unknown device type", nil)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	data, err := h.layouts.GetByUserAndType(cctx, userID, deviceType)

	if err != nil {
		RespondInternal(ctx, "Could not load layout")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deviceType": deviceType,
		"layout":     data,
	})
}

func (h *LayoutsHandler) Save(ctx *gin.Context) {
	deviceType := ctx.Param("deviceType")

	if !device.IsValidType(deviceType) {
		RespondBadRequest(ctx, "Unknown device type", nil)
		return
	}

	var req layout.SaveLayoutRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.devices.FindByUserAndType(cctx, userID, deviceType)

	if err != nil {
		if !errors.Is(err, device.ErrNotFound) {
			RespondInternal(ctx, "Could not save layout")
			return
		}

		// first save for this device type; give it a home
		d, err = h.devices.Create(cctx, userID, fmt.Sprintf("Default %s", deviceType), deviceType, nil)

		if err != nil {
			RespondInternal(ctx, "Could not save layout")
			return
		}
	}

	data, err := json.Marshal(req.Layout)

	if err != nil {
		RespondInternal(ctx, "Could not save layout")
		return
	}

	if err := h.layouts.Save(cctx, d.ID, deviceType, data); err != nil {
		RespondInternal(ctx, "Could not save layout")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deviceType": deviceType,
		"layout":     json.RawMessage(data),
	})
}
