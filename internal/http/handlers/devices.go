package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/config"
	"github.com/davidemms/widgethub/internal/domain/device"
	"github.com/davidemms/widgethub/internal/http/middlewares"
	"github.com/davidemms/widgethub/internal/security"
)

type DeviceStore interface {
	Create(ctx context.Context, userID, name, typ string, apiKey *string) (device.Device, error)
	ListByUser(ctx context.Context, userID string) ([]device.Device, error)
	Rename(ctx context.Context, id, userID, name string) (device.Device, error)
	Delete(ctx context.Context, id, userID string) error
}

type DevicesHandler struct {
	store DeviceStore
}

func NewDevicesHandler(store DeviceStore) *DevicesHandler {
	return &DevicesHandler{store: store}
}

// Register creates a device. Only iot devices get a key, and the raw
// key appears in this response and nowhere else afterwards.
func (h *DevicesHandler) Register(ctx *gin.Context) {
	var req device.RegisterDeviceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	var apiKey *string

	if req.Type == device.TypeIoT {
		key, err := security.GenerateDeviceKey()

		if err != nil {
			RespondInternal(ctx, "Could not register device")
			return
		}

		apiKey = &key
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.store.Create(cctx, userID, req.Name, req.Type, apiKey)

	if err != nil {
		RespondInternal(ctx, "Could not register device")
		return
	}

	resp := gin.H{"device": d}

	if apiKey != nil {
		resp["apiKey"] = *apiKey
	}

	ctx.JSON(http.StatusCreated, resp)
}

func (h *DevicesHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	list, err := h.store.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load devices")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"devices": list})
}

func (h *DevicesHandler) Rename(ctx *gin.Context) {
	var req device.RenameDeviceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.store.Rename(cctx, ctx.Param("id"), userID, req.Name)

	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			RespondNotFound(ctx, "Device not found")
			return
		}

		RespondInternal(ctx, "Could not rename device")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

// Delete removes a device; an iot device's key stops authenticating
// the moment the row is gone.
func (h *DevicesHandler) Delete(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.Delete(cctx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			RespondNotFound(ctx, "Device not found")
			return
		}

		RespondInternal(ctx, "Could not delete device")
		return
	}

	ctx.Status(http.StatusNoContent)
}
