package module

import (
	"encoding/json"
	"errors"
	"time"
)

type Type string

const (
	TypeWeather   Type = "weather"
	TypeNotes     Type = "notes"
	TypeTodo      Type = "todo"
	TypeCountdown Type = "countdown"
	TypeLinks     Type = "links"
	TypeCustom    Type = "custom"
)

var ErrNotFound = errors.New("module not found")

// IsValid reports whether t is one of the known widget types.
func (t Type) IsValid() bool {
	switch t {
	case TypeWeather, TypeNotes, TypeTodo, TypeCountdown, TypeLinks, TypeCustom:
		return true
	}
	return false
}

// Module is a single configurable widget instance owned by a user.
// Config is stored as an opaque JSON document; each type owns the
// interpretation of its own config.
type Module struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Type      Type            `json:"type"`
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CreateModuleRequest struct {
	Type   Type            `json:"type" binding:"required,oneof=weather notes todo countdown links custom"`
	Config json.RawMessage `json:"config"`
}

// a full replacement of the config document, not a patch
type UpdateConfigRequest struct {
	Config json.RawMessage `json:"config" binding:"required"`
}

type AddItemRequest struct {
	Text  string `json:"text" binding:"omitempty,max=1000"`
	Title string `json:"title" binding:"omitempty,max=200"`
	URL   string `json:"url" binding:"omitempty,max=2000"`
}
