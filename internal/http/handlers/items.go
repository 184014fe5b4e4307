package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/config"
	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/domain/user"
	"github.com/davidemms/widgethub/internal/http/middlewares"
	"github.com/davidemms/widgethub/internal/modules"
	"github.com/davidemms/widgethub/internal/repo/postgres"
)

// ItemsHandler mutates the item collections inside notes, todo and
// links configs. Every mutation runs in a transaction that locks the
// module row first, so two concurrent adds cannot overwrite each
// other's read of the blob.
type ItemsHandler struct {
	store *postgres.ModulesRepo
}

func NewItemsHandler(store *postgres.ModulesRepo) *ItemsHandler {
	return &ItemsHandler{store: store}
}

func (h *ItemsHandler) AddItem(ctx *gin.Context) {
	var req module.AddItemRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)
	tier, ok := middlewares.TierFromContext(ctx)
	if !ok {
		tier = user.TierFree
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.store.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not add item")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	m, err := h.store.GetForUpdate(cctx, tx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}

		RespondInternal(ctx, "Could not add item")
		return
	}

	var (
		updated   json.RawMessage
		truncated bool
	)

	switch m.Type {
	case module.TypeNotes:
		if strings.TrimSpace(req.Text) == "" {
			RespondBadRequest(ctx, "Note text is required", nil)
			return
		}

		updated, truncated, err = modules.AddNote(m.Config, req.Text, tier)

	case module.TypeTodo:
		if strings.TrimSpace(req.Text) == "" {
			RespondBadRequest(ctx, "Todo text is required", nil)
			return
		}

		updated, err = modules.AddTodo(m.Config, req.Text, tier)

	case module.TypeLinks:
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
			RespondBadRequest(ctx, "Link title and url are required", nil)
			return
		}

		updated, err = modules.AddLink(m.Config, req.Title, req.URL, tier)

	default:
		RespondBadRequest(ctx, "Module type does not support items", nil)
		return
	}

	if err != nil {
		var quota *modules.QuotaError

		if errors.As(err, &quota) {
			RespondForbidden(ctx, "quota_exceeded", quota.Error())
			return
		}

		RespondInternal(ctx, "Could not add item")
		return
	}

	if err := h.store.UpdateConfigTx(cctx, tx, m.ID, updated); err != nil {
		RespondInternal(ctx, "Could not add item")
		return
	}

	if err := tx.Commit(cctx); err != nil {
		RespondInternal(ctx, "Could not add item")
		return
	}

	resp := gin.H{"config": json.RawMessage(updated)}

	if truncated {
		resp["warning"] = "Oldest item removed to stay within the limit"
	}

	ctx.JSON(http.StatusCreated, resp)
}

// ToggleItem flips a todo's completion state. Only todo modules have
// toggleable items.
func (h *ItemsHandler) ToggleItem(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.store.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not update item")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	m, err := h.store.GetForUpdate(cctx, tx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}

		RespondInternal(ctx, "Could not update item")
		return
	}

	if m.Type != module.TypeTodo {
		RespondBadRequest(ctx, "Module type does not support toggling", nil)
		return
	}

	updated, item, err := modules.ToggleTodo(m.Config, ctx.Param("itemID"))

	if err != nil {
		if errors.Is(err, modules.ErrItemNotFound) {
			RespondNotFound(ctx, "Item not found")
			return
		}

		RespondInternal(ctx, "Could not update item")
		return
	}

	if err := h.store.UpdateConfigTx(cctx, tx, m.ID, updated); err != nil {
		RespondInternal(ctx, "Could not update item")
		return
	}

	if err := tx.Commit(cctx); err != nil {
		RespondInternal(ctx, "Could not update item")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ItemsHandler) RemoveItem(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.store.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not remove item")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	m, err := h.store.GetForUpdate(cctx, tx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}

		RespondInternal(ctx, "Could not remove item")
		return
	}

	itemID := ctx.Param("itemID")

	var updated json.RawMessage

	switch m.Type {
	case module.TypeNotes:
		updated, err = modules.RemoveNote(m.Config, itemID)
	case module.TypeTodo:
		updated, err = modules.RemoveTodo(m.Config, itemID)
	case module.TypeLinks:
		updated, err = modules.RemoveLink(m.Config, itemID)
	default:
		RespondBadRequest(ctx, "Module type does not support items", nil)
		return
	}

	if err != nil {
		if errors.Is(err, modules.ErrItemNotFound) {
			RespondNotFound(ctx, "Item not found")
			return
		}

		RespondInternal(ctx, "Could not remove item")
		return
	}

	if err := h.store.UpdateConfigTx(cctx, tx, m.ID, updated); err != nil {
		RespondInternal(ctx, "Could not remove item")
		return
	}

	if err := tx.Commit(cctx); err != nil {
		RespondInternal(ctx, "Could not remove item")
		return
	}

	ctx.Status(http.StatusNoContent)
}
