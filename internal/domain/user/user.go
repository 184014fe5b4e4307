package user

import (
	"errors"
	"time"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Tier         string     `json:"subscriptionTier"`
	TierExpires  *time.Time `json:"subscriptionExpires,omitempty"` // nil = non-expiring
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TierExpired reports whether a premium tier has lapsed. Callers must
// downgrade and persist before reporting the tier anywhere.
func (u User) TierExpired(now time.Time) bool {
	return u.Tier == TierPremium && u.TierExpires != nil && u.TierExpires.Before(now)
}
