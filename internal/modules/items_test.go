package modules

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/davidemms/widgethub/internal/domain/user"
)

func notesBlob(t *testing.T, n int) json.RawMessage {
	t.Helper()

	cfg := NotesConfig{Notes: make([]Note, 0, n)}

	for i := 0; i < n; i++ {
		cfg.Notes = append(cfg.Notes, Note{ID: fmt.Sprintf("n%d", i), Text: fmt.Sprintf("note %d", i)})
	}

	raw, err := json.Marshal(cfg)

	if err != nil {
		t.Fatal(err)
	}

	return raw
}

func TestAddNote(t *testing.T) {
	t.Run("prepends newest first", func(t *testing.T) {
		raw, truncated, err := AddNote(notesBlob(t, 2), "fresh", user.TierFree)

		if err != nil {
			t.Fatal(err)
		}

		if truncated {
			t.Fatal("unexpected truncation")
		}

		var cfg NotesConfig

		if err := json.Unmarshal(raw, &cfg); err != nil {
			t.Fatal(err)
		}

		if len(cfg.Notes) != 3 || cfg.Notes[0].Text != "fresh" {
			t.Fatalf("unexpected notes: %+v", cfg.Notes)
		}

		if cfg.Notes[0].ID == "" || cfg.Notes[0].CreatedAt.IsZero() {
			t.Fatal("new note missing id or timestamp")
		}
	})

	t.Run("11th note on free tier drops the oldest", func(t *testing.T) {
		raw, truncated, err := AddNote(notesBlob(t, 10), "eleventh", user.TierFree)

		if err != nil {
			t.Fatal(err)
		}

		if !truncated {
			t.Fatal("expected truncation")
		}

		var cfg NotesConfig

		if err := json.Unmarshal(raw, &cfg); err != nil {
			t.Fatal(err)
		}

		if len(cfg.Notes) != FreeNoteLimit {
			t.Fatalf("got %d notes", len(cfg.Notes))
		}

		if cfg.Notes[0].Text != "eleventh" {
			t.Fatalf("newest note not first: %+v", cfg.Notes[0])
		}

		// oldest (n9) was dropped
		for _, n := range cfg.Notes {
			if n.ID == "n9" {
				t.Fatal("oldest note survived truncation")
			}
		}
	})

	t.Run("premium keeps up to 50", func(t *testing.T) {
		_, truncated, err := AddNote(notesBlob(t, 10), "more", user.TierPremium)

		if err != nil {
			t.Fatal(err)
		}

		if truncated {
			t.Fatal("premium should not truncate at 11 notes")
		}
	})
}

func todoBlob(t *testing.T, n int) json.RawMessage {
	t.Helper()

	cfg := TodoConfig{Todos: make([]Todo, 0, n)}

	for i := 0; i < n; i++ {
		cfg.Todos = append(cfg.Todos, Todo{ID: fmt.Sprintf("t%d", i), Text: fmt.Sprintf("todo %d", i)})
	}

	raw, err := json.Marshal(cfg)

	if err != nil {
		t.Fatal(err)
	}

	return raw
}

func TestAddTodo(t *testing.T) {
	t.Run("appends under limit", func(t *testing.T) {
		raw, err := AddTodo(todoBlob(t, 3), "new task", user.TierFree)

		if err != nil {
			t.Fatal(err)
		}

		var cfg TodoConfig

		if err := json.Unmarshal(raw, &cfg); err != nil {
			t.Fatal(err)
		}

		if len(cfg.Todos) != 4 || cfg.Todos[3].Text != "new task" {
			t.Fatalf("unexpected todos: %+v", cfg.Todos)
		}
	})

	t.Run("21st todo on free tier is rejected", func(t *testing.T) {
		blob := todoBlob(t, 20)

		_, err := AddTodo(blob, "one too many", user.TierFree)

		var quota *QuotaError

		if !errors.As(err, &quota) {
			t.Fatalf("expected QuotaError, got %v", err)
		}

		if quota.Limit != FreeTodoLimit {
			t.Fatalf("got limit=%d", quota.Limit)
		}

		// rejected write leaves the original blob untouched
		var cfg TodoConfig

		if err := json.Unmarshal(blob, &cfg); err != nil {
			t.Fatal(err)
		}

		if len(cfg.Todos) != 20 {
			t.Fatalf("original list changed: %d todos", len(cfg.Todos))
		}
	})
}

func TestToggleTodo(t *testing.T) {
	raw, item, err := ToggleTodo(todoBlob(t, 2), "t1")

	if err != nil {
		t.Fatal(err)
	}

	if !item.Completed || item.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp: %+v", item)
	}

	// toggling back clears the timestamp
	raw, item, err = ToggleTodo(raw, "t1")

	if err != nil {
		t.Fatal(err)
	}

	if item.Completed || item.CompletedAt != nil {
		t.Fatalf("expected cleared completion: %+v", item)
	}

	_, _, err = ToggleTodo(raw, "missing")

	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRemoveItems(t *testing.T) {
	t.Run("remove note", func(t *testing.T) {
		raw, err := RemoveNote(notesBlob(t, 3), "n1")

		if err != nil {
			t.Fatal(err)
		}

		var cfg NotesConfig

		if err := json.Unmarshal(raw, &cfg); err != nil {
			t.Fatal(err)
		}

		if len(cfg.Notes) != 2 {
			t.Fatalf("got %d notes", len(cfg.Notes))
		}
	})

	t.Run("remove missing note", func(t *testing.T) {
		_, err := RemoveNote(notesBlob(t, 3), "nope")

		if !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("remove link", func(t *testing.T) {
		cfg := LinksConfig{Links: []Link{{ID: "l1", Title: "Go", URL: "https://go.dev"}}}

		blob, err := json.Marshal(cfg)

		if err != nil {
			t.Fatal(err)
		}

		raw, err := RemoveLink(blob, "l1")

		if err != nil {
			t.Fatal(err)
		}

		var out LinksConfig

		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatal(err)
		}

		if len(out.Links) != 0 {
			t.Fatalf("got %d links", len(out.Links))
		}
	})
}

func TestAddLink(t *testing.T) {
	blob := json.RawMessage(`{"links":[]}`)

	raw, err := AddLink(blob, "Go", "https://go.dev", user.TierFree)

	if err != nil {
		t.Fatal(err)
	}

	var cfg LinksConfig

	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatal(err)
	}

	if len(cfg.Links) != 1 || cfg.Links[0].URL != "https://go.dev" {
		t.Fatalf("unexpected links: %+v", cfg.Links)
	}

	// fill to the free cap and expect a rejection
	full := LinksConfig{Links: make([]Link, FreeLinkLimit)}

	for i := range full.Links {
		full.Links[i] = Link{ID: fmt.Sprintf("l%d", i), Title: "x", URL: "https://x"}
	}

	fullBlob, err := json.Marshal(full)

	if err != nil {
		t.Fatal(err)
	}

	_, err = AddLink(fullBlob, "y", "https://y", user.TierFree)

	var quota *QuotaError

	if !errors.As(err, &quota) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
}
