package secrets

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/davidemms/widgethub/internal/domain/secret"
	"github.com/davidemms/widgethub/internal/observability"
	"github.com/davidemms/widgethub/internal/security"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeStore struct {
	rows   map[string]secret.APIKey
	lastTx *fakeTx
}

func (f *fakeStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	f.lastTx = &fakeTx{}
	return f.lastTx, nil
}

func (f *fakeStore) ListActive(ctx context.Context, userID string) ([]secret.APIKey, error) {
	out := []secret.APIKey{}
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeStore) GetActiveCiphertext(ctx context.Context, userID, service string) (string, error) {
	row, ok := f.rows[service]
	if !ok {
		return "", secret.ErrNotFound
	}
	return row.Ciphertext, nil
}

func (f *fakeStore) DeactivateTx(ctx context.Context, tx pgx.Tx, userID, service string) error {
	delete(f.rows, service)
	return nil
}

func (f *fakeStore) CreateTx(ctx context.Context, tx pgx.Tx, row secret.APIKey) error {
	if f.rows == nil {
		f.rows = map[string]secret.APIKey{}
	}
	f.rows[row.Service] = row
	return nil
}

func (f *fakeStore) Deactivate(ctx context.Context, userID, service string) error {
	delete(f.rows, service)
	return nil
}

func newService(t *testing.T, store *fakeStore) *Service {
	t.Helper()

	box, err := security.NewSecretBox("unit-test-key")

	if err != nil {
		t.Fatal(err)
	}

	return NewService(store, box, observability.NewLogger("test"))
}

func TestPutAndGet(t *testing.T) {
	store := &fakeStore{}
	svc := newService(t, store)

	ctx := context.Background()

	row, err := svc.Put(ctx, "user-1", "openweathermap", "raw-key")

	if err != nil {
		t.Fatal(err)
	}

	if row.Ciphertext == "raw-key" || row.Ciphertext == "" {
		t.Fatalf("ciphertext not encrypted: %q", row.Ciphertext)
	}

	if !store.lastTx.committed {
		t.Fatal("put did not commit")
	}

	got, err := svc.Get(ctx, "user-1", "openweathermap")

	if err != nil {
		t.Fatal(err)
	}

	if got != "raw-key" {
		t.Fatalf("got %q", got)
	}
}

func TestGetMissingIsEmptyNotError(t *testing.T) {
	svc := newService(t, &fakeStore{})

	got, err := svc.Get(context.Background(), "user-1", "openweathermap")

	if err != nil || got != "" {
		t.Fatalf("got (%q, %v), want empty and nil", got, err)
	}
}

func TestGetUndecryptableIsEmptyNotError(t *testing.T) {
	// a row sealed under a different master key
	otherBox, _ := security.NewSecretBox("old-rotated-key")
	sealed, _ := otherBox.Seal("raw-key")

	store := &fakeStore{rows: map[string]secret.APIKey{
		"openweathermap": {ID: "k-1", Service: "openweathermap", Ciphertext: sealed, Active: true},
	}}

	svc := newService(t, store)

	got, err := svc.Get(context.Background(), "user-1", "openweathermap")

	if err != nil || got != "" {
		t.Fatalf("got (%q, %v), want empty and nil", got, err)
	}
}

func TestPutReplacesActiveRow(t *testing.T) {
	store := &fakeStore{}
	svc := newService(t, store)

	ctx := context.Background()

	if _, err := svc.Put(ctx, "user-1", "openweathermap", "first"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Put(ctx, "user-1", "openweathermap", "second"); err != nil {
		t.Fatal(err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("expected one active row, got %d", len(store.rows))
	}

	got, err := svc.Get(ctx, "user-1", "openweathermap")

	if err != nil || got != "second" {
		t.Fatalf("got (%q, %v)", got, err)
	}
}
