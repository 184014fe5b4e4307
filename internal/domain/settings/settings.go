package settings

import "errors"

var ErrNotFound = errors.New("settings not found")

type Settings struct {
	UserID           string `json:"-"`
	Theme            string `json:"theme"`
	LayoutPreference string `json:"defaultLayoutPreference"`
}

// Defaults returns the settings a fresh user starts with.
func Defaults(userID string) Settings {
	return Settings{
		UserID:           userID,
		Theme:            "light",
		LayoutPreference: "grid",
	}
}

type UpdateSettingsRequest struct {
	Theme            *string `json:"theme" binding:"omitempty,oneof=light dark blue green"`
	LayoutPreference *string `json:"defaultLayoutPreference" binding:"omitempty,oneof=grid list"`
}

type UpdateSubscriptionRequest struct {
	Tier string `json:"tier" binding:"required,oneof=free premium"`
}
