package modules

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidemms/widgethub/internal/domain/module"
)

// Item mutations decode the stored blob, apply one change, and return
// the re-encoded blob. Callers run them inside a row-locked
// transaction so concurrent edits to the same widget serialize.

var ErrItemNotFound = fmt.Errorf("item not found")

// AddNote prepends a note and truncates the list to the tier cap,
// dropping the oldest entries. The second return reports whether
// anything was dropped.
func AddNote(raw json.RawMessage, text, tier string) (json.RawMessage, bool, error) {
	var cfg NotesConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false, fmt.Errorf("decode notes config: %w", err)
	}

	note := Note{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now().UTC(),
	}

	cfg.Notes = append([]Note{note}, cfg.Notes...)

	limit := ItemLimit(module.TypeNotes, tier)
	truncated := false

	if len(cfg.Notes) > limit {
		cfg.Notes = cfg.Notes[:limit]
		truncated = true
	}

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, false, fmt.Errorf("encode notes config: %w", err)
	}

	return out, truncated, nil
}

func RemoveNote(raw json.RawMessage, noteID string) (json.RawMessage, error) {
	var cfg NotesConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode notes config: %w", err)
	}

	kept := cfg.Notes[:0]
	found := false

	for _, n := range cfg.Notes {
		if n.ID == noteID {
			found = true
			continue
		}
		kept = append(kept, n)
	}

	if !found {
		return nil, ErrItemNotFound
	}

	cfg.Notes = kept

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, fmt.Errorf("encode notes config: %w", err)
	}

	return out, nil
}

// AddTodo appends a todo; unlike notes, hitting the cap rejects the
// write instead of evicting old entries.
func AddTodo(raw json.RawMessage, text, tier string) (json.RawMessage, error) {
	var cfg TodoConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode todo config: %w", err)
	}

	limit := ItemLimit(module.TypeTodo, tier)

	if len(cfg.Todos) >= limit {
		return nil, &QuotaError{Resource: "todos", Limit: limit, Tier: tier}
	}

	cfg.Todos = append(cfg.Todos, Todo{
		ID:   uuid.NewString(),
		Text: strings.TrimSpace(text),
	})

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, fmt.Errorf("encode todo config: %w", err)
	}

	return out, nil
}

// ToggleTodo flips completion and stamps or clears the completion
// time. Returns the updated item alongside the new blob.
func ToggleTodo(raw json.RawMessage, todoID string) (json.RawMessage, Todo, error) {
	var cfg TodoConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, Todo{}, fmt.Errorf("decode todo config: %w", err)
	}

	idx := -1

	for i, t := range cfg.Todos {
		if t.ID == todoID {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, Todo{}, ErrItemNotFound
	}

	t := &cfg.Todos[idx]
	t.Completed = !t.Completed

	if t.Completed {
		now := time.Now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, Todo{}, fmt.Errorf("encode todo config: %w", err)
	}

	return out, *t, nil
}

func RemoveTodo(raw json.RawMessage, todoID string) (json.RawMessage, error) {
	var cfg TodoConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode todo config: %w", err)
	}

	kept := cfg.Todos[:0]
	found := false

	for _, t := range cfg.Todos {
		if t.ID == todoID {
			found = true
			continue
		}
		kept = append(kept, t)
	}

	if !found {
		return nil, ErrItemNotFound
	}

	cfg.Todos = kept

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, fmt.Errorf("encode todo config: %w", err)
	}

	return out, nil
}

// AddLink appends a link; caps reject like todos.
func AddLink(raw json.RawMessage, title, url, tier string) (json.RawMessage, error) {
	var cfg LinksConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode links config: %w", err)
	}

	limit := ItemLimit(module.TypeLinks, tier)

	if len(cfg.Links) >= limit {
		return nil, &QuotaError{Resource: "links", Limit: limit, Tier: tier}
	}

	cfg.Links = append(cfg.Links, Link{
		ID:    uuid.NewString(),
		Title: strings.TrimSpace(title),
		URL:   strings.TrimSpace(url),
	})

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, fmt.Errorf("encode links config: %w", err)
	}

	return out, nil
}

func RemoveLink(raw json.RawMessage, linkID string) (json.RawMessage, error) {
	var cfg LinksConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode links config: %w", err)
	}

	kept := cfg.Links[:0]
	found := false

	for _, l := range cfg.Links {
		if l.ID == linkID {
			found = true
			continue
		}
		kept = append(kept, l)
	}

	if !found {
		return nil, ErrItemNotFound
	}

	cfg.Links = kept

	out, err := json.Marshal(cfg)

	if err != nil {
		return nil, fmt.Errorf("encode links config: %w", err)
	}

	return out, nil
}
