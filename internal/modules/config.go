package modules

import "time"

// One config variant per widget type. The persisted blob stays loose
// (any JSON object is accepted at write time); these are the
// decode-on-read shapes each type interprets its own config through.

type WeatherConfig struct {
	Location string `json:"location"`
}

type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotesConfig struct {
	Title string `json:"title,omitempty"`
	Notes []Note `json:"notes"`
}

type Todo struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type TodoConfig struct {
	Title string `json:"title,omitempty"`
	Todos []Todo `json:"todos"`
}

type Link struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type LinksConfig struct {
	Title string `json:"title,omitempty"`
	Links []Link `json:"links"`
}

type CountdownConfig struct {
	Title          string `json:"title,omitempty"`
	TargetDate     string `json:"targetDate"` // RFC 3339
	ExpiredMessage string `json:"expiredMessage,omitempty"`
}

type CustomConfig struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}
