package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/config"
	"github.com/davidemms/widgethub/internal/domain/secret"
	"github.com/davidemms/widgethub/internal/domain/settings"
	"github.com/davidemms/widgethub/internal/domain/user"
	"github.com/davidemms/widgethub/internal/http/middlewares"
	"github.com/davidemms/widgethub/internal/modules"
	"github.com/davidemms/widgethub/internal/secrets"
)

type SettingsStore interface {
	CreateDefaults(ctx context.Context, userID string) (settings.Settings, error)
	Update(ctx context.Context, userID string, theme, layoutPreference *string) (settings.Settings, error)
}

type TierWriter interface {
	UpdateTier(ctx context.Context, id, tier string, expires *time.Time) error
}

type SettingsHandler struct {
	store   SettingsStore
	users   TierWriter
	secrets *secrets.Service
	now     func() time.Time
}

func NewSettingsHandler(store SettingsStore, users TierWriter, secretsSvc *secrets.Service) *SettingsHandler {
	return &SettingsHandler{store: store, users: users, secrets: secretsSvc, now: time.Now}
}

// Get is read-through: a user who somehow has no settings row gets
// the defaults created on first read.
func (h *SettingsHandler) Get(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.store.CreateDefaults(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load settings")
		return
	}

	ctx.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) Update(ctx *gin.Context) {
	var req settings.UpdateSettingsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.store.Update(cctx, userID, req.Theme, req.LayoutPreference)

	if err != nil {
		RespondInternal(ctx, "Could not update settings")
		return
	}

	ctx.JSON(http.StatusOK, s)
}

// API key management. The raw key goes in encrypted and never comes
// back out through the API.

func (h *SettingsHandler) ListAPIKeys(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	keys, err := h.secrets.List(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load API keys")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"apiKeys": keys})
}

func (h *SettingsHandler) CreateAPIKey(ctx *gin.Context) {
	var req secret.CreateAPIKeyRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	row, err := h.secrets.Put(cctx, userID, req.Service, req.APIKey)

	if err != nil {
		RespondInternal(ctx, "Could not store API key")
		return
	}

	ctx.JSON(http.StatusCreated, row)
}

func (h *SettingsHandler) DeleteAPIKey(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.secrets.Delete(cctx, userID, ctx.Param("service"))

	if err != nil {
		RespondInternal(ctx, "Could not delete API key")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Subscription state and the feature set each tier unlocks. The
// middleware has already persisted any lazy downgrade, so the tier
// reported here is never stale-premium.

func (h *SettingsHandler) GetSubscription(ctx *gin.Context) {
	u, ok := middlewares.CurrentUserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tier":      u.Tier,
		"expiresAt": u.TierExpires,
		"features":  tierFeatures(u.Tier),
	})
}

func (h *SettingsHandler) UpdateSubscription(ctx *gin.Context) {
	var req settings.UpdateSubscriptionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	var expires *time.Time

	if req.Tier == user.TierPremium {
		t := h.now().UTC().Add(30 * 24 * time.Hour)
		expires = &t
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.UpdateTier(cctx, userID, req.Tier, expires)

	if err != nil {
		RespondInternal(ctx, "Could not update subscription")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tier":      req.Tier,
		"expiresAt": expires,
		"features":  tierFeatures(req.Tier),
	})
}

func tierFeatures(tier string) gin.H {
	if tier == user.TierPremium {
		return gin.H{
			"maxModules":       nil, // unlimited
			"maxNotes":         modules.PremiumNoteLimit,
			"maxTodos":         modules.PremiumTodoLimit,
			"maxLinks":         modules.PremiumLinkLimit,
			"refreshInterval":  int(modules.PremiumRefreshInterval.Seconds()),
			"iotDeviceSupport": true,
		}
	}

	return gin.H{
		"maxModules":       modules.FreeModuleLimit,
		"maxNotes":         modules.FreeNoteLimit,
		"maxTodos":         modules.FreeTodoLimit,
		"maxLinks":         modules.FreeLinkLimit,
		"refreshInterval":  int(modules.FreeRefreshInterval.Seconds()),
		"iotDeviceSupport": true,
	}
}
