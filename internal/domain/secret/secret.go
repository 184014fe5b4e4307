package secret

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("api key not found")

// APIKey is a per (user, service) third-party credential. The key
// material is stored encrypted and is reversible on read; deletion is
// logical via the Active flag so history survives re-issuance.
type APIKey struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	Service    string    `json:"service"`
	Ciphertext string    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateAPIKeyRequest struct {
	Service string `json:"service" binding:"required,min=1,max=50"`
	APIKey  string `json:"apiKey" binding:"required,min=1"`
}
