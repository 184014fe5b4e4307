package modules

import (
	"context"
	"encoding/json"
)

// The non-weather renderers are pure functions of the config blob:
// no network I/O, no stored state beyond the document itself.

type NotesData struct {
	Notes    []Note `json:"notes"`
	MaxNotes int    `json:"maxNotes"`
}

type notesRenderer struct{}

func (notesRenderer) Render(_ context.Context, raw json.RawMessage, _ Context) any {
	var cfg NotesConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ErrorData{Error: "Invalid notes configuration"}
	}

	if cfg.Notes == nil {
		cfg.Notes = []Note{}
	}

	return NotesData{Notes: cfg.Notes, MaxNotes: FreeNoteLimit}
}

type TodoData struct {
	Todos     []Todo `json:"todos"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
	Total     int    `json:"total"`
}

type todoRenderer struct{}

func (todoRenderer) Render(_ context.Context, raw json.RawMessage, _ Context) any {
	var cfg TodoConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ErrorData{Error: "Invalid todo configuration"}
	}

	if cfg.Todos == nil {
		cfg.Todos = []Todo{}
	}

	// counts are derived from the list every time; no independent
	// counters that can drift
	completed := 0

	for _, t := range cfg.Todos {
		if t.Completed {
			completed++
		}
	}

	return TodoData{
		Todos:     cfg.Todos,
		Completed: completed,
		Pending:   len(cfg.Todos) - completed,
		Total:     len(cfg.Todos),
	}
}

type LinksData struct {
	Links    []Link `json:"links"`
	MaxLinks int    `json:"maxLinks"`
}

type linksRenderer struct{}

func (linksRenderer) Render(_ context.Context, raw json.RawMessage, _ Context) any {
	var cfg LinksConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ErrorData{Error: "Invalid links configuration"}
	}

	if cfg.Links == nil {
		cfg.Links = []Link{}
	}

	// link reachability is not checked; the list is returned as stored
	return LinksData{Links: cfg.Links, MaxLinks: FreeLinkLimit}
}

type CustomData struct {
	HTML         string `json:"html"`
	CSS          string `json:"css"`
	AllowScripts bool   `json:"allowScripts"`
}

type customRenderer struct{}

func (customRenderer) Render(_ context.Context, raw json.RawMessage, _ Context) any {
	var cfg CustomConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ErrorData{Error: "Invalid custom configuration"}
	}

	if cfg.HTML == "" {
		cfg.HTML = "<p>Configure your custom HTML content</p>"
	}

	// pass-through only: sanitization is the renderer's job, this
	// side never evaluates the content
	return CustomData{HTML: cfg.HTML, CSS: cfg.CSS, AllowScripts: false}
}
