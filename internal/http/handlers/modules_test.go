package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/auth"
	"github.com/davidemms/widgethub/internal/domain/device"
	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/domain/user"
	"github.com/davidemms/widgethub/internal/http/handlers"
	"github.com/davidemms/widgethub/internal/http/middlewares"
	"github.com/davidemms/widgethub/internal/modules"
	"github.com/davidemms/widgethub/internal/observability"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	return f.claims, nil
}

type fakeDeviceResolver struct {
	byKey map[string]device.Device
}

func (f *fakeDeviceResolver) GetByKey(ctx context.Context, key string) (device.Device, error) {
	d, ok := f.byKey[key]
	if !ok {
		return device.Device{}, device.ErrNotFound
	}
	return d, nil
}

func (f *fakeDeviceResolver) TouchAccess(ctx context.Context, id string) error { return nil }

type fakeUserSource struct {
	user user.User
}

func (f *fakeUserSource) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.user, nil
}

func (f *fakeUserSource) UpdateTier(ctx context.Context, id, tier string, expires *time.Time) error {
	return nil
}

// Fake implementation of the handlers.ModuleStore interface

type fakeModuleStore struct {
	createFn func(ctx context.Context, userID string, typ module.Type, config json.RawMessage) (module.Module, error)
	listFn   func(ctx context.Context, userID string) ([]module.Module, error)
	getFn    func(ctx context.Context, id, userID string) (module.Module, error)
	countFn  func(ctx context.Context, userID string) (int, error)
	updateFn func(ctx context.Context, id, userID string, config json.RawMessage) (module.Module, error)
	deleteFn func(ctx context.Context, id, userID string) error
}

func (f *fakeModuleStore) Create(ctx context.Context, userID string, typ module.Type, config json.RawMessage) (module.Module, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, typ, config)
	}
	return module.Module{ID: "m-1", UserID: userID, Type: typ, Config: config}, nil
}

func (f *fakeModuleStore) ListByUser(ctx context.Context, userID string) ([]module.Module, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return []module.Module{}, nil
}

func (f *fakeModuleStore) GetByID(ctx context.Context, id, userID string) (module.Module, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id, userID)
	}
	return module.Module{}, module.ErrNotFound
}

func (f *fakeModuleStore) CountByUser(ctx context.Context, userID string) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeModuleStore) UpdateConfig(ctx context.Context, id, userID string, config json.RawMessage) (module.Module, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, userID, config)
	}
	return module.Module{}, module.ErrNotFound
}

func (f *fakeModuleStore) Delete(ctx context.Context, id, userID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, userID)
	}
	return module.ErrNotFound
}

// modulesRouter runs the handler behind the real auth and
// subscription middleware, with the identity faked at the edges.

func modulesRouter(store *fakeModuleStore, tier string, devices map[string]device.Device) *gin.Engine {
	authMw := middlewares.NewAuthMiddleware(
		&fakeVerifier{claims: &auth.Claims{UserID: "user-1", Email: "a@b.c"}},
		&fakeDeviceResolver{byKey: devices},
	)
	subMw := middlewares.NewSubscriptionMiddleware(
		&fakeUserSource{user: user.User{ID: "user-1", Tier: tier}},
		observability.NewLogger("test"),
	)

	h := handlers.NewModulesHandler(store, modules.NewResolver(nil, nil, nil))

	r := gin.New()

	api := r.Group("/", authMw.RequireAuth(), subMw.CheckSubscription())
	api.GET("/modules", h.List)
	api.POST("/modules", h.Create)
	api.PUT("/modules/:id/config", h.UpdateConfig)
	api.DELETE("/modules/:id", h.Delete)

	data := r.Group("/", authMw.RequireAuthOrDeviceKey(), subMw.CheckSubscription())
	data.GET("/modules/:id/data", h.GetData)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer

	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestCreateModule(t *testing.T) {
	tests := []struct {
		name       string
		tier       string
		count      int
		body       string
		wantStatus int
		wantInBody string
	}{
		{
			name:       "created under the free limit",
			tier:       user.TierFree,
			count:      4,
			body:       `{"type":"notes","config":{"title":"Ideas"}}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "sixth module on free tier is rejected",
			tier:       user.TierFree,
			count:      5,
			body:       `{"type":"notes"}`,
			wantStatus: http.StatusForbidden,
			wantInBody: "quota_exceeded",
		},
		{
			name:       "premium passes the free limit",
			tier:       user.TierPremium,
			count:      25,
			body:       `{"type":"todo"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown type fails validation",
			tier:       user.TierFree,
			count:      0,
			body:       `{"type":"clock"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "config must be an object",
			tier:       user.TierFree,
			count:      0,
			body:       `{"type":"notes","config":[1,2]}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeModuleStore{
				countFn: func(ctx context.Context, userID string) (int, error) {
					return tt.count, nil
				},
			}

			r := modulesRouter(store, tt.tier, nil)

			w := doJSON(t, r, http.MethodPost, "/modules", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantInBody != "" && !strings.Contains(w.Body.String(), tt.wantInBody) {
				t.Fatalf("body missing %q: %s", tt.wantInBody, w.Body.String())
			}
		})
	}
}

func TestGetModuleData(t *testing.T) {
	store := &fakeModuleStore{
		getFn: func(ctx context.Context, id, userID string) (module.Module, error) {
			if id == "m-1" && userID == "user-1" {
				return module.Module{
					ID:     "m-1",
					UserID: userID,
					Type:   module.TypeNotes,
					Config: json.RawMessage(`{"notes":[{"id":"n1","text":"hi"}]}`),
				}, nil
			}
			return module.Module{}, module.ErrNotFound
		},
	}

	devices := map[string]device.Device{
		"iot-key": {ID: "dev-1", UserID: "user-1", Type: device.TypeIoT},
	}

	r := modulesRouter(store, user.TierFree, devices)

	t.Run("bearer caller gets resolved data", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/modules/m-1/data", "")

		if w.Code != http.StatusOK {
			t.Fatalf("status %d body=%s", w.Code, w.Body.String())
		}

		body := w.Body.String()

		if !strings.Contains(body, `"type":"notes"`) || !strings.Contains(body, `"maxNotes":10`) {
			t.Fatalf("unexpected body: %s", body)
		}
	})

	t.Run("device key caller reaches the same endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/modules/m-1/data", nil)
		req.Header.Set(middlewares.DeviceKeyHeader, "iot-key")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status %d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("someone else's module is not found", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/modules/m-other/data", "")

		if w.Code != http.StatusNotFound {
			t.Fatalf("status %d body=%s", w.Code, w.Body.String())
		}
	})
}

func TestUpdateModuleConfig(t *testing.T) {
	store := &fakeModuleStore{
		updateFn: func(ctx context.Context, id, userID string, config json.RawMessage) (module.Module, error) {
			if id != "m-1" {
				return module.Module{}, module.ErrNotFound
			}
			return module.Module{ID: id, UserID: userID, Type: module.TypeNotes, Config: config}, nil
		},
	}

	r := modulesRouter(store, user.TierFree, nil)

	t.Run("replaces the document", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/modules/m-1/config", `{"config":{"title":"New"}}`)

		if w.Code != http.StatusOK {
			t.Fatalf("status %d body=%s", w.Code, w.Body.String())
		}

		if !strings.Contains(w.Body.String(), `"title":"New"`) {
			t.Fatalf("body: %s", w.Body.String())
		}
	})

	t.Run("missing module is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/modules/gone/config", `{"config":{}}`)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status %d", w.Code)
		}
	})

	t.Run("non-object config is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/modules/m-1/config", `{"config":"oops"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status %d body=%s", w.Code, w.Body.String())
		}
	})
}

func TestDeleteModule(t *testing.T) {
	deleted := []string{}

	store := &fakeModuleStore{
		deleteFn: func(ctx context.Context, id, userID string) error {
			if id != "m-1" {
				return module.ErrNotFound
			}
			deleted = append(deleted, id)
			return nil
		},
	}

	r := modulesRouter(store, user.TierFree, nil)

	w := doJSON(t, r, http.MethodDelete, "/modules/m-1", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("status %d", w.Code)
	}

	if len(deleted) != 1 {
		t.Fatalf("delete not forwarded: %v", deleted)
	}

	w = doJSON(t, r, http.MethodDelete, "/modules/gone", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}
