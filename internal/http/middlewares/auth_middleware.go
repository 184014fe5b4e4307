package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/auth"
	"github.com/davidemms/widgethub/internal/domain/device"
)

// DeviceKeyHeader carries the iot credential. Its presence, not its
// validity, selects the device-key auth path.
const DeviceKeyHeader = "X-Device-Key"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// DeviceResolver maps a raw device key to its registered device.
type DeviceResolver interface {
	GetByKey(ctx context.Context, key string) (device.Device, error)
	TouchAccess(ctx context.Context, deviceID string) error
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	devices DeviceResolver
}

func NewAuthMiddleware(jwt TokenVerifier, devices DeviceResolver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, devices: devices}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.bearerAuth(c) {
			return
		}

		c.Next()
	}
}

// RequireAuthOrDeviceKey accepts either a bearer token or a device
// key. Exactly one path runs per request: sending the device header
// commits the request to device auth, and an unknown key is a hard
// reject even when a valid token is also present.
func (m *AuthMiddleware) RequireAuthOrDeviceKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(DeviceKeyHeader)

		if key != "" {
			if !m.deviceAuth(c, key) {
				return
			}

			c.Next()
			return
		}

		if !m.bearerAuth(c) {
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) bearerAuth(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "unauthorized",
				"message": "Missing or invalid Authorization header",
			},
		})
		return false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "unauthorized",
				"message": "Missing or invalid access token",
			},
		})
		return false
	}

	claims, err := m.jwt.VerifyAccessToken(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "unauthorized",
				"message": "Invalid or expired access token",
			},
		})
		return false
	}

	// Stash useful bits of identity on the context
	c.Set(ctxUserIDKey, claims.UserID)
	c.Set(ctxEmailKey, claims.Email)
	c.Set(ctxDeviceTypeKey, device.TypeWeb)

	return true
}

func (m *AuthMiddleware) deviceAuth(c *gin.Context, key string) bool {
	d, err := m.devices.GetByKey(c.Request.Context(), key)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Invalid device key",
			},
		})
		return false
	}

	// best effort; a failed timestamp update never blocks the request
	_ = m.devices.TouchAccess(c.Request.Context(), d.ID)

	c.Set(ctxUserIDKey, d.UserID)
	c.Set(ctxDeviceTypeKey, d.Type)
	c.Set(ctxDeviceAuthKey, true)

	return true
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func DeviceTypeFromContext(c *gin.Context) string {
	v, ok := c.Get(ctxDeviceTypeKey)
	if !ok {
		return device.TypeWeb
	}
	t, ok := v.(string)
	if !ok || t == "" {
		return device.TypeWeb
	}
	return t
}

func ViaDeviceKey(c *gin.Context) bool {
	return c.GetBool(ctxDeviceAuthKey)
}

func TierFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxTierKey)
	if !ok {
		return "", false
	}
	t, ok := v.(string)
	return t, ok
}
