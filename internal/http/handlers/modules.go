package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/config"
	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/domain/user"
	"github.com/davidemms/widgethub/internal/http/middlewares"
	"github.com/davidemms/widgethub/internal/modules"
)

type ModuleStore interface {
	Create(ctx context.Context, userID string, typ module.Type, config json.RawMessage) (module.Module, error)
	ListByUser(ctx context.Context, userID string) ([]module.Module, error)
	GetByID(ctx context.Context, id, userID string) (module.Module, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	UpdateConfig(ctx context.Context, id, userID string, config json.RawMessage) (module.Module, error)
	Delete(ctx context.Context, id, userID string) error
}

type ModulesHandler struct {
	store    ModuleStore
	resolver *modules.Resolver
}

func NewModulesHandler(store ModuleStore, resolver *modules.Resolver) *ModulesHandler {
	return &ModulesHandler{store: store, resolver: resolver}
}

func (h *ModulesHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	list, err := h.store.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load modules")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"modules": list})
}

func (h *ModulesHandler) Create(ctx *gin.Context) {
	var req module.CreateModuleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if len(req.Config) > 0 && !isJSONObject(req.Config) {
		RespondBadRequest(ctx, "Config must be a JSON object", nil)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)
	tier, ok := middlewares.TierFromContext(ctx)
	if !ok {
		tier = user.TierFree
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	count, err := h.store.CountByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not create module")
		return
	}

	if err := modules.CanCreateModule(tier, count); err != nil {
		RespondForbidden(ctx, "quota_exceeded", err.Error())
		return
	}

	m, err := h.store.Create(cctx, userID, req.Type, req.Config)

	if err != nil {
		RespondInternal(ctx, "Could not create module")
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

// GetData resolves a module's config to renderable data. This is the
// one endpoint that also serves device-key callers.
func (h *ModulesHandler) GetData(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	deviceType := middlewares.DeviceTypeFromContext(ctx)

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	m, err := h.store.GetByID(cctx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}

		RespondInternal(ctx, "Could not load module")
		return
	}

	data := h.resolver.Resolve(cctx, m.Type, m.Config, modules.Context{
		UserID:     userID,
		DeviceType: deviceType,
	})

	ctx.JSON(http.StatusOK, gin.H{
		"id":          m.ID,
		"type":        m.Type,
		"data":        data,
		"lastUpdated": time.Now().UTC(),
	})
}

func (h *ModulesHandler) UpdateConfig(ctx *gin.Context) {
	var req module.UpdateConfigRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !isJSONObject(req.Config) {
		RespondBadRequest(ctx, "Config must be a JSON object", nil)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	m, err := h.store.UpdateConfig(cctx, ctx.Param("id"), userID, req.Config)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}

		RespondInternal(ctx, "Could not update module")
		return
	}

	ctx.JSON(http.StatusOK, m)
}

func (h *ModulesHandler) Delete(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.Delete(cctx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}

		RespondInternal(ctx, "Could not delete module")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// isJSONObject checks the blob is a `{...}` document without decoding
// the whole thing into a map.
func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return json.Valid(raw)
		default:
			return false
		}
	}
	return false
}
