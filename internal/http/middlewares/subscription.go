package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidemms/widgethub/internal/domain/user"
)

type UserSource interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateTier(ctx context.Context, id, tier string, expires *time.Time) error
}

type SubscriptionMiddleware struct {
	users UserSource
	log   *slog.Logger
	now   func() time.Time
}

func NewSubscriptionMiddleware(users UserSource, log *slog.Logger) *SubscriptionMiddleware {
	return &SubscriptionMiddleware{users: users, log: log, now: time.Now}
}

// CheckSubscription loads the current user and lazily downgrades a
// lapsed premium tier. The downgrade is persisted before any handler
// reports the tier, so a response never claims premium for an expired
// subscription.
func (m *SubscriptionMiddleware) CheckSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication required",
				},
			})
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Unknown account",
				},
			})
			return
		}

		if u.TierExpired(m.now()) {
			err = m.users.UpdateTier(c.Request.Context(), u.ID, user.TierFree, nil)
			if err != nil {
				// keep honoring premium rather than failing the
				// request; next request retries the downgrade
				m.log.Error("tier downgrade failed",
					slog.String("user_id", u.ID),
					slog.String("error", err.Error()),
				)
			} else {
				u.Tier = user.TierFree
				u.TierExpires = nil
			}
		}

		c.Set(ctxUserKey, u)
		c.Set(ctxTierKey, u.Tier)

		c.Next()
	}
}

func CurrentUserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
