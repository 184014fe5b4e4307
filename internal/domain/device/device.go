package device

import (
	"errors"
	"time"
)

const (
	TypeWeb    = "web"
	TypeMobile = "mobile"
	TypeIoT    = "iot"
)

var ErrNotFound = errors.New("device not found")

// IsValidType reports whether t is a known device type.
func IsValidType(t string) bool {
	return t == TypeWeb || t == TypeMobile || t == TypeIoT
}

type Device struct {
	ID         string     `json:"id"`
	UserID     string     `json:"-"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	APIKey     *string    `json:"-"` // only iot devices carry a key; returned once at creation
	LastAccess *time.Time `json:"lastAccess,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type RegisterDeviceRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Type string `json:"type" binding:"required,oneof=web mobile iot"`
}

type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}
